package httptransport

import (
	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every non-probe endpoint.
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Respond writes data under status with a short message.
func Respond(c *gin.Context, status int, msg string, data interface{}) {
	c.JSON(status, Response{
		Code: status,
		Msg:  msg,
		Data: data,
	})
}
