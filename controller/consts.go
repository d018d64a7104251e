package controller

var (
	InvalidPayloadResponse = BaseResponse{
		Success: false,
		Message: "Invalid payload. Required: devid and time",
	}

	InvalidTimeResponse = BaseResponse{
		Success: false,
		Message: "Invalid time format",
	}

	ParameterErrorResponse = BaseResponse{
		Success: false,
		Message: "parameter error",
	}

	AlarmNotFoundResponse = BaseResponse{
		Success: false,
		Message: "Alarm not found",
	}

	AlarmNotActiveResponse = BaseResponse{
		Success: false,
		Message: "Alarm not active",
	}

	InternalErrorResponse = BaseResponse{
		Success: false,
		Message: "Internal server error",
	}

	WrongCredentialsResponse = BaseResponse{
		Success: false,
		Message: "wrong username or password",
	}
)
