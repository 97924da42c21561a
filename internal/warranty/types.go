package warranty

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FlexID is an asset or user identifier that may arrive as a JSON string or a
// JSON number. It keeps the original representation for re-serialization, but
// "7" and 7 produce the same cache key.
type FlexID struct {
	value  string
	quoted bool
}

// ID builds a FlexID from a native value.
func ID(v interface{}) FlexID {
	switch t := v.(type) {
	case string:
		return FlexID{value: t, quoted: true}
	case int:
		return FlexID{value: strconv.Itoa(t)}
	case int64:
		return FlexID{value: strconv.FormatInt(t, 10)}
	case float64:
		return FlexID{value: strconv.FormatFloat(t, 'f', -1, 64)}
	default:
		return FlexID{}
	}
}

// Key returns the representation-independent lookup key.
func (id FlexID) Key() string { return id.value }

func (id FlexID) String() string { return id.value }

// IsZero reports whether the identifier is empty.
func (id FlexID) IsZero() bool { return id.value == "" }

func (id *FlexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		id.value = s
		id.quoted = true
		return nil
	}
	if string(b) == "null" {
		*id = FlexID{}
		return nil
	}
	id.value = string(b)
	id.quoted = false
	return nil
}

func (id FlexID) MarshalJSON() ([]byte, error) {
	if !id.quoted && id.value != "" {
		if _, err := strconv.ParseFloat(id.value, 64); err == nil {
			return []byte(id.value), nil
		}
	}
	return json.Marshal(id.value)
}

// NameRef is a reference that may arrive as an object with a name field, a
// bare string, or nothing at all. Category and department both use it.
type NameRef struct {
	set      bool
	isObject bool
	name     string
}

// Name builds a NameRef from a plain string. An empty string yields an
// absent reference.
func Name(s string) NameRef {
	return NameRef{set: s != "", name: s}
}

// Name collapses the reference to a plain string: the object's name field, the
// bare string itself, or "" when absent or empty.
func (r NameRef) Name() string {
	if !r.set {
		return ""
	}
	return r.name
}

// IsSet reports whether the reference carried any value.
func (r NameRef) IsSet() bool { return r.set }

func (r *NameRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = NameRef{}
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = NameRef{set: true, isObject: true, name: obj.Name}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = NameRef{set: s != "", name: s}
	return nil
}

func (r NameRef) MarshalJSON() ([]byte, error) {
	if !r.set {
		return []byte("null"), nil
	}
	if r.isObject {
		return json.Marshal(struct {
			Name string `json:"name"`
		}{Name: r.name})
	}
	return json.Marshal(r.name)
}

// CreatorRef is the created_by field: a profile-shaped object, a bare string,
// or absent.
type CreatorRef struct {
	set      bool
	isString bool
	str      string
	name     string
	fullName string
}

// Creator builds a string-shaped CreatorRef. An empty string yields an
// absent reference.
func Creator(s string) CreatorRef {
	return CreatorRef{set: s != "", isString: true, str: s}
}

func (r *CreatorRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = CreatorRef{}
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Name     string `json:"name"`
			FullName string `json:"full_name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = CreatorRef{set: true, name: obj.Name, fullName: obj.FullName}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = CreatorRef{set: true, isString: true, str: s}
	return nil
}

func (r CreatorRef) MarshalJSON() ([]byte, error) {
	if !r.set {
		return []byte("null"), nil
	}
	if r.isString {
		return json.Marshal(r.str)
	}
	return json.Marshal(struct {
		Name     string `json:"name,omitempty"`
		FullName string `json:"full_name,omitempty"`
	}{Name: r.name, FullName: r.fullName})
}

// Profile is the joined profiles relation of an asset row.
type Profile struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Cost is a numeric value that may arrive as a JSON number or a numeric
// string.
type Cost struct {
	raw string
}

// CostOf builds a Cost from a native float.
func CostOf(v float64) Cost {
	return Cost{raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Float parses the cost. A value that cannot be parsed yields NaN; the remote
// service is the validation authority either way.
func (c Cost) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.raw), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func (c *Cost) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		c.raw = s
		return nil
	}
	if string(b) == "null" {
		c.raw = ""
		return nil
	}
	c.raw = string(b)
	return nil
}

func (c Cost) MarshalJSON() ([]byte, error) {
	f := c.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// Asset is the record shape supplied by the asset accessor. Joined relations
// may appear under either of their two spellings, or not at all.
type Asset struct {
	ID            FlexID     `json:"id"`
	Name          string     `json:"name"`
	Category      NameRef    `json:"category,omitempty"`
	Categories    NameRef    `json:"categories,omitempty"`
	Department    NameRef    `json:"department,omitempty"`
	Departments   NameRef    `json:"departments,omitempty"`
	Cost          Cost       `json:"cost"`
	DatePurchased string     `json:"date_purchased"`
	CreatedBy     CreatorRef `json:"created_by,omitempty"`
	CreatedAt     string     `json:"created_at"`
	Profiles      *Profile   `json:"profiles,omitempty"`

	SerialNumber    *string `json:"serial_number,omitempty"`
	SerialNumberAlt *string `json:"serialNumber,omitempty"`
	Manufacturer    *string `json:"manufacturer,omitempty"`
	ModelNumber     *string `json:"model_number,omitempty"`
	ModelNumberAlt  *string `json:"modelNumber,omitempty"`
}

// CategoryName resolves the category relation under either spelling.
func (a Asset) CategoryName() string {
	if a.Category.IsSet() {
		return a.Category.Name()
	}
	return a.Categories.Name()
}

// DepartmentName resolves the department relation under either spelling.
func (a Asset) DepartmentName() string {
	if a.Department.IsSet() {
		return a.Department.Name()
	}
	return a.Departments.Name()
}

// CreatorName resolves the asset creator's display name. The joined profiles
// relation wins over the created_by field.
func (a Asset) CreatorName() string {
	if a.Profiles != nil {
		if a.Profiles.FullName != "" {
			return a.Profiles.FullName
		}
		return a.Profiles.Name
	}
	if a.CreatedBy.set {
		if a.CreatedBy.isString {
			return a.CreatedBy.str
		}
		if a.CreatedBy.name != "" {
			return a.CreatedBy.name
		}
		return a.CreatedBy.fullName
	}
	return ""
}

// ActingUser is the logged-in user performing a registration. The display
// name may be supplied combined, as full_name, or split into first/last.
type ActingUser struct {
	ID        FlexID `json:"id"`
	Name      string `json:"name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// DisplayName resolves the acting user's name, falling back to "User" when no
// name field is present.
func (u ActingUser) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.FullName != "" {
		return u.FullName
	}
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return "User"
}

// firstDefined returns the first non-nil candidate, or nil.
func firstDefined(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

// RegistrationRequest is the flattened wire body sent to the registration
// endpoint. Every name-shaped field is a plain string by the time it lands
// here.
type RegistrationRequest struct {
	ID            FlexID `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Department    string `json:"department"`
	Cost          Cost   `json:"cost"`
	DatePurchased string `json:"date_purchased"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     string `json:"created_at"`

	RegisteredByID   FlexID `json:"registered_by_id"`
	RegisteredByName string `json:"registered_by_name"`

	WarrantyDurationMonths int     `json:"warranty_duration_months"`
	SerialNumber           *string `json:"serial_number"`
	Manufacturer           *string `json:"manufacturer"`
	ModelNumber            *string `json:"model_number"`
}

// RegistrationResult is the registration endpoint's response body. The remote
// encodes failure in the body, not via the HTTP status code.
type RegistrationResult struct {
	Success           bool                `json:"success"`
	Message           string              `json:"message,omitempty"`
	Status            string              `json:"status,omitempty"`
	StatusLabel       string              `json:"status_label,omitempty"`
	WarrantyID        *int64              `json:"warranty_id,omitempty"`
	AssetID           *FlexID             `json:"asset_id,omitempty"`
	RegisteredAt      string              `json:"registered_at,omitempty"`
	WarrantyStartDate string              `json:"warranty_start_date,omitempty"`
	WarrantyEndDate   string              `json:"warranty_end_date,omitempty"`
	Error             string              `json:"error,omitempty"`
	Details           map[string][]string `json:"details,omitempty"`
}

// AlreadyRegistered reports the recoverable duplicate-registration outcome: a
// failed response that still names an existing warranty. Callers treat it as
// success.
func (r RegistrationResult) AlreadyRegistered() bool {
	return !r.Success && r.Status == "registered" && r.WarrantyID != nil
}

// Status is one asset's last-known warranty state. Error distinguishes
// "confirmed not registered" from "unknown due to transport failure"; check
// it before trusting IsRegistered == false.
type Status struct {
	IsRegistered      bool   `json:"is_registered"`
	Status            string `json:"status,omitempty"`
	StatusLabel       string `json:"status_label,omitempty"`
	WarrantyID        *int64 `json:"warranty_id,omitempty"`
	WarrantyStartDate string `json:"warranty_start_date,omitempty"`
	WarrantyEndDate   string `json:"warranty_end_date,omitempty"`
	DaysUntilExpiry   *int   `json:"days_until_expiry,omitempty"`
	RegisteredAt      string `json:"registered_at,omitempty"`
	RegisteredBy      string `json:"registered_by,omitempty"`
	Message           string `json:"message,omitempty"`
	Error             bool   `json:"error,omitempty"`
}
