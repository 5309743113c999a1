package entities

import (
	"sort"
	"strings"
	"sync"
)

// Fallback is the type assigned to entities whose type the registry does not
// recognise.
const Fallback = "ORG"

var builtin = []struct{ name, label string }{
	{"ORG", "Organization"},
	{"PERSON", "Person"},
	{"TRANSACTION_TYPE", "Transaction Type"},
	{"DEAL_STRUCTURE", "Deal Structure"},
	{"FINANCIAL_INFO", "Financial Information"},
	{"PRODUCT", "Product"},
	{"LOCATION", "Location"},
	{"DATE", "Date"},
	{"INDUSTRY", "Industry"},
	{"ROLE", "Role"},
	{"REGULATORY", "Regulatory"},
	{"SENSITIVE_INFO", "Sensitive Information"},
	{"CONTACT", "Contact"},
	{"ID", "Identifier"},
	{"STRATEGY", "Strategy"},
	{"COMPANY", "Company"},
	{"MONEY", "Money"},
	{"EMAIL", "Email Address"},
	{"PHONE", "Phone Number"},
	{"SSN", "Social Security Number"},
	{"CREDIT_CARD", "Credit Card Number"},
	{"IP_ADDRESS", "IP Address"},
	{"URL", "URL"},
	{"AGE", "Age"},
	{"NATIONALITY", "Nationality"},
	{"JOB_TITLE", "Job Title"},
	{"EDUCATION", "Educational Institution"},
	{"ADDRESS", "Address"},
	{"CITY", "City"},
	{"STATE", "State"},
	{"ZIP", "Zip Code"},
	{"COUNTRY", "Country"},
	{"REGION", "Region"},
}

// EntityType is a registry entry: an upper-case name and a display label.
type EntityType struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Registry is the mutable set of entity types a Detector accepts. It is safe
// for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]string
}

// NewRegistry returns a registry seeded with the built-in types.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]string, len(builtin))}
	for _, b := range builtin {
		r.types[b.name] = b.label
	}
	return r
}

// Add registers or relabels a type. The name is upper-cased.
func (r *Registry) Add(name, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[strings.ToUpper(name)] = label
}

// Remove deletes a type; unknown names are ignored.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.types, strings.ToUpper(name))
}

// Types returns the registered types sorted by name.
func (r *Registry) Types() []EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntityType, 0, len(r.types))
	for n, l := range r.types {
		out = append(out, EntityType{Name: n, Label: l})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve maps a type name or label to its registered name. Names are
// normalised to upper case with spaces replaced by underscores; labels match
// case-insensitively.
func (r *Registry) Resolve(s string) (string, bool) {
	norm := Normalize(s)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.types[norm]; ok {
		return norm, true
	}
	for n, l := range r.types {
		if strings.EqualFold(l, strings.TrimSpace(s)) {
			return n, true
		}
	}
	return "", false
}

// Normalize upper-cases s and replaces spaces with underscores.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_")
}

// pattern is an alternation of all registered names.
func (r *Registry) pattern() string {
	ts := r.Types()
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return "(" + strings.Join(names, "|") + ")"
}
