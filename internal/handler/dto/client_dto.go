package dto

type HeartbeatRequest struct {
	HWID             string   `json:"hwid" binding:"required"`
	PlanName         string   `json:"plan_name"`
	StrategiesActive []string `json:"strategies_active"`
}

type ConnectionConfig struct {
	PlanName            string   `json:"plan_name"`
	StrategiesActive    []string `json:"strategies_active"`
	StrategiesAvailable []string `json:"strategies_available"`
}

type HeartbeatResponse struct {
	Success bool             `json:"success"`
	Config  ConnectionConfig `json:"config"`
}
