package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// HandlerFunc is an action that reports failure by returning it.
type HandlerFunc func(c *gin.Context) error

// Wrap adapts an action to gin. A returned error, or a panic raised while the
// action runs, is attached to the request and the chain is aborted; rendering
// is left to the failure handler installed on the engine.
func Wrap(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("%v", r)
				}
				Abort(c, fmt.Errorf("panic in handler %s: %w", c.HandlerName(), err))
			}
		}()

		if err := fn(c); err != nil {
			Abort(c, err)
		}
	}
}

// Abort stops the handler chain and forwards err to the failure handler.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
