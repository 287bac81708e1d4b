package apimodels

type Response struct {
	Status  string      `json:"status"`            //fail/success
	Message string      `json:"message,omitempty"` //error message
	Data    interface{} `json:"data,omitempty"`    //response payload
}

func NewError(message string) Response {
	return Response{
		Status:  "fail",
		Message: message,
	}
}

// NewRuleError attaches the violated rule list so the caller can render
// an actionable message.
func NewRuleError(message string, rules interface{}) Response {
	return Response{
		Status:  "fail",
		Message: message,
		Data:    rules,
	}
}

func NewResponse(data interface{}) Response {
	return Response{
		Status: "success",
		Data:   data,
	}
}
