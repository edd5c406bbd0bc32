package routegate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Route declares a protected destination and the roles allowed to see it.
// An empty role list admits any authenticated principal.
type Route struct {
	Path  string `yaml:"path"`
	Roles []Role `yaml:"roles"`
}

// Table is the route table consumed by the gate.
type Table struct {
	Routes []Route `yaml:"routes"`
}

// DefaultTable is the compiled-in route table for the CRM screens.
func DefaultTable() Table {
	return Table{Routes: []Route{
		{Path: AdminHome, Roles: []Role{RoleAdmin}},
		{Path: ManagerHome, Roles: []Role{RoleManager}},
		{Path: SalesHome},
		{Path: "/leads"},
		{Path: "/teams", Roles: []Role{RoleAdmin, RoleManager}},
		{Path: "/users", Roles: []Role{RoleAdmin}},
		{Path: "/import", Roles: []Role{RoleAdmin, RoleManager}},
		{Path: "/settings"},
	}}
}

// LoadTable reads a route table from a YAML file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read route table: %w", err)
	}
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return Table{}, fmt.Errorf("failed to parse route table: %w", err)
	}
	return table, nil
}

// Lookup returns the allowed-role set for a path. ok is false when the
// path is not in the table.
func (t Table) Lookup(path string) ([]Role, bool) {
	for _, route := range t.Routes {
		if route.Path == path {
			return route.Roles, true
		}
	}
	return nil, false
}
