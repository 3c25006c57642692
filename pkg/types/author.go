// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AuthorRecord holds the identity fields parsed from a registry user
// document. It is never persisted directly.
type AuthorRecord struct {
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`

	// InstitutionalID comes from the proprietary-id attribute of the user object.
	InstitutionalID string `json:"institutional_id" yaml:"institutional_id"`

	// RegistryID is the registry's own numeric user ID.
	RegistryID string `json:"registry_id" yaml:"registry_id"`

	// DLCName is the author's primary organizational unit.
	DLCName string `json:"dlc" yaml:"dlc"`
}

// MissingFields returns the names of the fields required to create a local
// Author that are blank, in a fixed order.
func (a AuthorRecord) MissingFields() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"email", a.Email},
		{"first name", a.FirstName},
		{"last name", a.LastName},
		{"institutional ID", a.InstitutionalID},
		{"DLC", a.DLCName},
	} {
		if isBlank(f.value) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Author is the locally stored author.
type Author struct {
	ID         int64  `json:"id" yaml:"id"`
	DLCID      int64  `json:"dlc_id" yaml:"dlc_id"`
	DLCName    string `json:"dlc" yaml:"dlc"`
	Email      string `json:"email" yaml:"email"`
	FirstName  string `json:"first_name" yaml:"first_name"`
	LastName   string `json:"last_name" yaml:"last_name"`
	IDHash     string `json:"id_hash" yaml:"id_hash"`
	RegistryID string `json:"registry_id" yaml:"registry_id"`
}

// FullName returns "First Last".
func (a Author) FullName() string {
	return a.FirstName + " " + a.LastName
}

// DLC is an organizational unit (department, lab, or center).
type DLC struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}
