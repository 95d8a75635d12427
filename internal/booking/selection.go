package booking

// Selection holds what the visitor picked so far. Each id/name pair is set
// together or not at all.
type Selection struct {
	EmployeeID   string `json:"employee_id,omitempty"`
	EmployeeName string `json:"employee_name,omitempty"`
	ServiceID    string `json:"service_id,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
	ServicePrice int    `json:"service_price,omitempty"`
}

// HasEmployee reports whether a barber has been chosen.
func (s Selection) HasEmployee() bool { return s.EmployeeID != "" }

// HasService reports whether a service has been chosen.
func (s Selection) HasService() bool { return s.ServiceID != "" }

// Complete reports whether both a barber and a service are chosen.
func (s Selection) Complete() bool { return s.HasEmployee() && s.HasService() }

// IsZero reports whether nothing has been selected.
func (s Selection) IsZero() bool { return s == Selection{} }
