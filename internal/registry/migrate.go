package registry

import (
	"encoding/json"
	"fmt"
)

// Migrations are applied to the raw JSON document before it is decoded into
// the typed Registry, one version step at a time, until the document reaches
// CurrentSchemaVersion. A document without a schemaVersion tag is treated as
// version 1 (the flat frontend/api application shape).
type migration func(doc map[string]interface{}) error

var migrations = map[int]migration{
	1: migrateFlatEndpointsToMap,
	2: migrateSingleAPIToList,
}

// Migrate upgrades a raw registry document to the current schema version.
func Migrate(doc map[string]interface{}) (map[string]interface{}, error) {
	version := documentVersion(doc)
	if version > CurrentSchemaVersion {
		return nil, fmt.Errorf("registry document has schema version %d, newer than supported version %d", version, CurrentSchemaVersion)
	}

	for version < CurrentSchemaVersion {
		step, ok := migrations[version]
		if !ok {
			return nil, fmt.Errorf("no migration from schema version %d", version)
		}
		if err := step(doc); err != nil {
			return nil, fmt.Errorf("migration from schema version %d failed: %w", version, err)
		}
		version++
		doc["schemaVersion"] = version
	}

	return doc, nil
}

func documentVersion(doc map[string]interface{}) int {
	raw, ok := doc["schemaVersion"]
	if !ok {
		return 1
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 1
	}
}

// migrateFlatEndpointsToMap (v1 -> v2) moves the old flat application shape
// {frontend: {...}, api: {...}} into an endpoints map keyed by the default
// environment's id.
func migrateFlatEndpointsToMap(doc map[string]interface{}) error {
	apps, ok := doc["applications"].([]interface{})
	if !ok {
		return nil
	}

	envID := defaultEnvironmentID(doc)

	for _, entry := range apps {
		app, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if _, hasEndpoints := app["endpoints"]; hasEndpoints {
			continue
		}

		endpointSet := map[string]interface{}{}
		if frontend, ok := app["frontend"]; ok && frontend != nil {
			endpointSet["frontend"] = frontend
		}
		if api, ok := app["api"]; ok && api != nil {
			endpointSet["api"] = api
		}
		delete(app, "frontend")
		delete(app, "api")

		app["endpoints"] = map[string]interface{}{}
		if len(endpointSet) > 0 {
			app["endpoints"] = map[string]interface{}{envID: endpointSet}
		}
	}

	return nil
}

// migrateSingleAPIToList (v2 -> v3) turns the single {api: {...}} object
// inside each environment's endpoint set into an apis list of one element.
func migrateSingleAPIToList(doc map[string]interface{}) error {
	apps, ok := doc["applications"].([]interface{})
	if !ok {
		return nil
	}

	for _, entry := range apps {
		app, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		endpoints, ok := app["endpoints"].(map[string]interface{})
		if !ok {
			continue
		}
		for _, rawSet := range endpoints {
			set, ok := rawSet.(map[string]interface{})
			if !ok {
				continue
			}
			api, hasAPI := set["api"]
			_, hasAPIs := set["apis"]
			if hasAPI && !hasAPIs && api != nil {
				set["apis"] = []interface{}{api}
			}
			delete(set, "api")
		}
	}

	return nil
}

func defaultEnvironmentID(doc map[string]interface{}) string {
	envs, ok := doc["environments"].([]interface{})
	if !ok || len(envs) == 0 {
		return "default"
	}

	first := ""
	for _, entry := range envs {
		env, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := env["id"].(string)
		if first == "" {
			first = id
		}
		if isDefault, _ := env["isDefault"].(bool); isDefault {
			return id
		}
	}
	if first == "" {
		return "default"
	}
	return first
}

// decodeMigrated round-trips a migrated raw document into the typed
// Registry, which also strips deprecated keys and captures unknown ones.
func decodeMigrated(doc map[string]interface{}) (*Registry, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode migrated document: %w", err)
	}
	reg := &Registry{}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to decode migrated document: %w", err)
	}
	return reg, nil
}
