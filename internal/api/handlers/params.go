package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// listParam reads a repeatable query parameter, additionally splitting each
// occurrence on commas, so ?ids=a,b and ?ids=a&ids=b read the same.
func listParam(c *gin.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
