package venuesim

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes the simulator reports in the "code" field.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeTableNotFound  = "TABLE_NOT_FOUND"
	CodeNoSession      = "NO_SESSION"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeSessionInvalid = "SESSION_INVALID"
	CodeTrackRequired  = "TRACK_REQUIRED"
	CodeDuplicate      = "DUPLICATE_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL"
)

// Success writes a 200 with ok:true merged into data.
func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, withOK(data))
}

// Created writes a 201 with ok:true merged into data.
func Created(c *gin.Context, data gin.H) {
	c.JSON(http.StatusCreated, withOK(data))
}

// Fail writes an error document: {"ok":false,"code":...,"msg":...}.
func Fail(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"ok": false, "code": code, "msg": msg})
}

// BadRequest writes a 400.
func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, CodeBadRequest, msg)
}

func withOK(data gin.H) gin.H {
	out := gin.H{"ok": true}
	for k, v := range data {
		out[k] = v
	}
	return out
}
