package containermgr

import "github.com/google/uuid"

func randomSuffix() string {
	return uuid.New().String()[:8]
}
