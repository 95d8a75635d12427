// Package catalog holds the barbers and services offered in the wizard.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// Employee is a barber card.
type Employee struct {
	ID        string `mapstructure:"id" yaml:"id,omitempty" json:"id"`
	Name      string `mapstructure:"name" yaml:"name" json:"name"`
	Specialty string `mapstructure:"specialty" yaml:"specialty,omitempty" json:"specialty,omitempty"`
}

// Service is a service card. Price is in whole pesos.
type Service struct {
	ID      string `mapstructure:"id" yaml:"id,omitempty" json:"id"`
	Name    string `mapstructure:"name" yaml:"name" json:"name"`
	Price   int    `mapstructure:"price" yaml:"price" json:"price"`
	Minutes int    `mapstructure:"minutes" yaml:"minutes,omitempty" json:"minutes,omitempty"`
}

// Catalog is the validated list of cards shown by the wizard.
type Catalog struct {
	Employees []Employee `json:"employees"`
	Services  []Service  `json:"services"`
}

// Default returns the shop's standard offering.
func Default() *Catalog {
	c, _ := New(
		[]Employee{
			{Name: "Carlos Mendoza", Specialty: "Classic cuts"},
			{Name: "Andrés Ruiz", Specialty: "Fades and designs"},
			{Name: "Miguel Torres", Specialty: "Beards and shaves"},
		},
		[]Service{
			{Name: "Corte Clásico", Price: 25000, Minutes: 45},
			{Name: "Corte + Barba", Price: 35000, Minutes: 60},
			{Name: "Afeitado Tradicional", Price: 20000, Minutes: 30},
			{Name: "Diseño y Degradado", Price: 30000, Minutes: 50},
		},
	)
	return c
}

// New validates the cards and fills missing ids with a slug of the name.
func New(employees []Employee, services []Service) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[string]bool)
	for i, e := range employees {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, fmt.Errorf("barber %d: name is required", i)
		}
		if e.ID == "" {
			e.ID = slug.Make(e.Name)
		}
		if seen["e:"+e.ID] {
			return nil, fmt.Errorf("barber %q: duplicate id", e.ID)
		}
		seen["e:"+e.ID] = true
		c.Employees = append(c.Employees, e)
	}
	for i, s := range services {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, fmt.Errorf("service %d: name is required", i)
		}
		if s.Price < 0 {
			return nil, fmt.Errorf("service %q: price must not be negative", s.Name)
		}
		if s.ID == "" {
			s.ID = slug.Make(s.Name)
		}
		if seen["s:"+s.ID] {
			return nil, fmt.Errorf("service %q: duplicate id", s.ID)
		}
		seen["s:"+s.ID] = true
		c.Services = append(c.Services, s)
	}
	return c, nil
}

// Employee looks up a barber by id.
func (c *Catalog) Employee(id string) (Employee, bool) {
	for _, e := range c.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

// Service looks up a service by id.
func (c *Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// EmployeeIndex returns the card position of a barber, or -1.
func (c *Catalog) EmployeeIndex(id string) int {
	for i, e := range c.Employees {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// ServiceIndex returns the card position of a service, or -1.
func (c *Catalog) ServiceIndex(id string) int {
	for i, s := range c.Services {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// FormatPrice renders whole pesos with dot thousands separators: $25.000.
func FormatPrice(price int) string {
	sign := ""
	if price < 0 {
		sign = "-"
		price = -price
	}
	digits := strconv.Itoa(price)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String()
}
