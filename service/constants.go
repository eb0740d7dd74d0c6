package service

const (
	MinWeightKg          = 5
	MaxWeightKg          = 250
	MinActivityMinutes   = 0
	MaxActivityMinutes   = 720 // 12 horas
	MillilitersPerKg     = 30.0
	ActivityMlPerHour    = 500.0
	HeatThresholdCelsius = 30.0 // strictly greater triggers the uplift
	HeatUpliftFactor     = 1.2
)

const (
	msgWeightType      = "weight must be a number"
	msgWeightRange     = "weight must be between 5 and 250 kg"
	msgActivityType    = "activity time must be a number"
	msgActivityNegRng  = "activity time cannot be negative"
	msgActivityHighRng = "activity time cannot exceed 720 minutes"
)
