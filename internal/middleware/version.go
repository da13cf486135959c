package middleware

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"salonhub/internal/common"

	"github.com/labstack/echo/v4"
)

// APIVersion represents API version information
type APIVersion struct {
	Version string `json:"version"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionMiddleware stamps version headers and rejects unknown versions.
type VersionMiddleware struct {
	supportedVersions map[string]APIVersion
	defaultVersion    string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]APIVersion{
			"v1": {Version: "v1", Status: "active", Message: "Current stable API version"},
		},
		defaultVersion: "v1",
	}
}

// VersionHeader adds version information to response headers
func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-API-Version", version)
			return next(c)
		}
	}
}

// APIVersionResolver resolves the API version from the request path.
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := extractVersionFromPath(c.Request().URL.Path)
			if version == "" {
				c.Set("api_version", vm.defaultVersion)
				return next(c)
			}
			if _, ok := vm.supportedVersions[version]; !ok {
				return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", "Unsupported API version",
					map[string]string{"supported_versions": strings.Join(vm.SupportedVersions(), ", ")}))
			}
			c.Set("api_version", version)
			return next(c)
		}
	}
}

// extractVersionFromPath returns "vN" for paths like /v1/...; "" otherwise.
func extractVersionFromPath(path string) string {
	if len(path) < 3 || path[0] != '/' || path[1] != 'v' {
		return ""
	}
	end := 2
	for end < len(path) && path[end] >= '0' && path[end] <= '9' {
		end++
	}
	if end == 2 || (end < len(path) && path[end] != '/') {
		return ""
	}
	n, err := strconv.Atoi(path[2:end])
	if err != nil || n <= 0 {
		return ""
	}
	return "v" + strconv.Itoa(n)
}

// SupportedVersions lists the active versions in order.
func (vm *VersionMiddleware) SupportedVersions() []string {
	var versions []string
	for version, info := range vm.supportedVersions {
		if info.Status == "active" {
			versions = append(versions, version)
		}
	}
	sort.Strings(versions)
	return versions
}
