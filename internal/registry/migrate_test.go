package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_V1FlatShape(t *testing.T) {
	// Untagged document with the original flat frontend/api application
	// shape. The endpoints land under the default environment.
	doc := map[string]interface{}{
		"baseDomain": "example.com",
		"environments": []interface{}{
			map[string]interface{}{"id": "staging", "prefix": "staging", "apiPrefix": "api-staging"},
			map[string]interface{}{"id": "prod", "prefix": "", "apiPrefix": "api", "isDefault": true},
		},
		"applications": []interface{}{
			map[string]interface{}{
				"id":      "app-1",
				"slug":    "www",
				"enabled": true,
				"frontend": map[string]interface{}{
					"targetHost": "10.0.0.5", "targetPort": float64(3000),
				},
				"api": map[string]interface{}{
					"targetHost": "10.0.0.5", "targetPort": float64(3001), "requireAuth": true,
				},
			},
		},
	}

	migrated, err := Migrate(doc)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, migrated["schemaVersion"])

	reg, err := decodeMigrated(migrated)
	require.NoError(t, err)

	require.Len(t, reg.Applications, 1)
	app := reg.Applications[0]
	require.Contains(t, app.Endpoints, "prod")
	set := app.Endpoints["prod"]
	require.NotNil(t, set.Frontend)
	assert.Equal(t, 3000, set.Frontend.TargetPort)
	require.Len(t, set.APIs, 1)
	assert.Equal(t, 3001, set.APIs[0].TargetPort)
	assert.True(t, set.APIs[0].RequireAuth)
	assert.Empty(t, set.APIs[0].Slug)
}

func TestMigrate_V1WithoutDefaultEnvironmentUsesFirst(t *testing.T) {
	doc := map[string]interface{}{
		"environments": []interface{}{
			map[string]interface{}{"id": "home", "prefix": "", "apiPrefix": "api"},
		},
		"applications": []interface{}{
			map[string]interface{}{
				"id": "a", "slug": "www", "enabled": true,
				"frontend": map[string]interface{}{"targetHost": "h", "targetPort": float64(80)},
			},
		},
	}

	migrated, err := Migrate(doc)
	require.NoError(t, err)
	reg, err := decodeMigrated(migrated)
	require.NoError(t, err)
	assert.Contains(t, reg.Applications[0].Endpoints, "home")
}

func TestMigrate_V2SingleAPIBecomesList(t *testing.T) {
	doc := map[string]interface{}{
		"schemaVersion": float64(2),
		"environments": []interface{}{
			map[string]interface{}{"id": "prod", "prefix": "", "apiPrefix": "api"},
		},
		"applications": []interface{}{
			map[string]interface{}{
				"id": "a", "slug": "www", "enabled": true,
				"endpoints": map[string]interface{}{
					"prod": map[string]interface{}{
						"api": map[string]interface{}{"targetHost": "h", "targetPort": float64(81)},
					},
				},
			},
		},
	}

	migrated, err := Migrate(doc)
	require.NoError(t, err)
	reg, err := decodeMigrated(migrated)
	require.NoError(t, err)

	set := reg.Applications[0].Endpoints["prod"]
	assert.Nil(t, set.Frontend)
	require.Len(t, set.APIs, 1)
	assert.Equal(t, 81, set.APIs[0].TargetPort)
}

func TestMigrate_CurrentVersionIsUntouched(t *testing.T) {
	doc := map[string]interface{}{
		"schemaVersion": float64(CurrentSchemaVersion),
		"applications": []interface{}{
			map[string]interface{}{
				"id": "a", "slug": "www", "enabled": true,
				"endpoints": map[string]interface{}{
					"prod": map[string]interface{}{
						"apis": []interface{}{
							map[string]interface{}{"targetHost": "h", "targetPort": float64(81), "slug": "admin"},
						},
					},
				},
			},
		},
	}

	migrated, err := Migrate(doc)
	require.NoError(t, err)
	reg, err := decodeMigrated(migrated)
	require.NoError(t, err)
	assert.Equal(t, "admin", reg.Applications[0].Endpoints["prod"].APIs[0].Slug)
}

func TestMigrate_FutureVersionRejected(t *testing.T) {
	_, err := Migrate(map[string]interface{}{"schemaVersion": float64(CurrentSchemaVersion + 1)})
	require.Error(t, err)
}
