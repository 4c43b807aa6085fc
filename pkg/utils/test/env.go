package test

import (
	"fmt"
	"os"
	"testing"
)

// EnvVars holds environment variables required by an integration test.
type EnvVars struct {
	vars map[string]string
}

// NewEnvVars skips t unless every key is set.
func NewEnvVars(t testing.TB, keys ...string) EnvVars {
	t.Helper()
	e := EnvVars{
		vars: map[string]string{},
	}

	for _, key := range keys {
		value, ok := os.LookupEnv(key)
		if !ok || value == "" {
			t.Skipf("skipping test because %s is not set", key)
		}
		e.vars[key] = value
	}

	return e
}

func (e EnvVars) Get(key string) string {
	if v, ok := e.vars[key]; ok {
		return v
	}

	panic(fmt.Sprintf("env var %s is not set", key))
}

// Firestore returns project and database IDs of the test Firestore, or skips t.
func Firestore(t testing.TB) (projectID, databaseID string) {
	t.Helper()
	vars := NewEnvVars(t, "TEST_FIRESTORE_PROJECT_ID", "TEST_FIRESTORE_DATABASE_ID")
	return vars.Get("TEST_FIRESTORE_PROJECT_ID"), vars.Get("TEST_FIRESTORE_DATABASE_ID")
}
