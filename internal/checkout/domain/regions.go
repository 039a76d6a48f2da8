package domain

import "strings"

// Province is a Sri Lankan province and the districts inside it.
type Province struct {
	Name      string   `json:"name"`
	Districts []string `json:"districts"`
}

var provinces = []Province{
	{Name: "Western", Districts: []string{"Colombo", "Gampaha", "Kalutara"}},
	{Name: "Central", Districts: []string{"Kandy", "Matale", "Nuwara Eliya"}},
	{Name: "Southern", Districts: []string{"Galle", "Matara", "Hambantota"}},
	{Name: "Northern", Districts: []string{"Jaffna", "Kilinochchi", "Mannar", "Vavuniya", "Mullaitivu"}},
	{Name: "Eastern", Districts: []string{"Batticaloa", "Ampara", "Trincomalee"}},
	{Name: "North Western", Districts: []string{"Kurunegala", "Puttalam"}},
	{Name: "North Central", Districts: []string{"Anuradhapura", "Polonnaruwa"}},
	{Name: "Uva", Districts: []string{"Badulla", "Monaragala"}},
	{Name: "Sabaragamuwa", Districts: []string{"Ratnapura", "Kegalle"}},
}

// Provinces returns a copy of the province table.
func Provinces() []Province {
	out := make([]Province, len(provinces))
	for i, p := range provinces {
		out[i] = Province{Name: p.Name, Districts: append([]string(nil), p.Districts...)}
	}
	return out
}

func findProvince(name string) (Province, bool) {
	name = strings.TrimSpace(name)
	for _, p := range provinces {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Province{}, false
}

// CanonicalProvince returns the table spelling of a province name.
func CanonicalProvince(name string) (string, bool) {
	p, ok := findProvince(name)
	return p.Name, ok
}

// Districts returns the districts of a province, or nil for an unknown one.
func Districts(province string) []string {
	p, ok := findProvince(province)
	if !ok {
		return nil
	}
	return append([]string(nil), p.Districts...)
}

// CanonicalDistrict returns the table spelling of district if it belongs to
// province.
func CanonicalDistrict(province, district string) (string, bool) {
	district = strings.TrimSpace(district)
	for _, d := range Districts(province) {
		if strings.EqualFold(d, district) {
			return d, true
		}
	}
	return "", false
}

// DistrictBelongs reports whether district is in the province's district set.
func DistrictBelongs(province, district string) bool {
	_, ok := CanonicalDistrict(province, district)
	return ok
}
