package router

import "github.com/gin-gonic/gin"

// Module registers a feature's routes on the /api group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Named modules are reported by name when mounted.
type Named interface {
	Name() string
}

func moduleName(m Module) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return "unnamed"
}
