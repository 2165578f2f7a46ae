package conversation

import (
	"callfile/internal/enrichment/providers"
	sessionmodels "callfile/internal/session/models"
)

// extrasFrom keeps the lookup detail worth having in the prompt context.
// Owner details are only kept when the number has more than one owner.
func extrasFrom(id *providers.Identity) *sessionmodels.CallerExtras {
	if id == nil {
		return nil
	}
	x := &sessionmodels.CallerExtras{
		FirstName:      id.FirstName,
		MiddleName:     id.MiddleName,
		LastName:       id.LastName,
		AlternateNames: id.AlternateNames,
		AgeRange:       id.AgeRange,
		Gender:         id.Gender,
		OwnerType:      id.OwnerType,
		Carrier:        id.Carrier,
		IsPrepaid:      id.IsPrepaid,
		IsCommercial:   id.IsCommercial,
		Emails:         id.Emails,
	}
	for _, a := range id.Addresses {
		x.Addresses = append(x.Addresses, sessionmodels.ExtraAddress{
			Formatted: a.Formatted,
			Lat:       a.Lat,
			Lng:       a.Lng,
			Accuracy:  a.Accuracy,
		})
	}
	for _, p := range id.AlternatePhones {
		x.AlternatePhones = append(x.AlternatePhones, sessionmodels.ExtraPhone{Number: p.Number, LineType: p.LineType})
	}
	if id.OwnerCount > 1 {
		x.OwnerCount = id.OwnerCount
		for _, o := range id.Owners {
			x.Owners = append(x.Owners, sessionmodels.ExtraOwner{Name: o.Name, Type: o.Type, AgeRange: o.AgeRange})
		}
	}
	return x.Clone()
}
