// internal/api/endpoints.go
//
// Platform API endpoint table.  Paths are relative to Client.BaseURL.

package api

import "fmt"

const apiPrefix = "/api/v1"

const (
	PathLogin  = apiPrefix + "/auth/login"
	PathSignup = apiPrefix + "/auth/signup"
	PathLogout = apiPrefix + "/auth/logout"
)

// PathReview is the review collection of one course material.
func PathReview(materialID int64) string {
	return fmt.Sprintf("%s/materials/%d/review", apiPrefix, materialID)
}
