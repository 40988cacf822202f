package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeMaintenanceSweep = "licensing:maintenance:sweep"
)

type MaintenanceSweepPayload struct{}

func NewMaintenanceSweepTask(opts ...asynq.Option) (*asynq.Task, error) {
	payload := MaintenanceSweepPayload{}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(1 * time.Hour)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeMaintenanceSweep, payloadBytes, allOpts...), nil
}
