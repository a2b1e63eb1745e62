package handler

import (
	"idhub/internal/consolidation"
	"idhub/internal/consolidation/providers"
	"idhub/internal/matching"
)

// ConsolidateRequest is the wire shape of a consolidation request.
type ConsolidateRequest struct {
	Name            string            `json:"name"`
	DateOfBirth     string            `json:"date_of_birth"`
	Phone           string            `json:"phone,omitempty"`
	NationalID      string            `json:"national_id,omitempty"`
	DocumentNumbers map[string]string `json:"document_numbers,omitempty"`
	Biometric       *BiometricInput   `json:"biometric,omitempty"`
}

// BiometricInput carries externally computed match ratios.
type BiometricInput struct {
	Fingerprint *float64 `json:"fingerprint,omitempty"`
	Face        *float64 `json:"face,omitempty"`
}

// ToDomain converts the wire request into the domain request.
func (r ConsolidateRequest) ToDomain() consolidation.Request {
	req := consolidation.Request{
		Name:        r.Name,
		DateOfBirth: r.DateOfBirth,
		Phone:       r.Phone,
		NationalID:  r.NationalID,
	}
	if len(r.DocumentNumbers) > 0 {
		req.DocumentNumbers = make(map[providers.RegistryType]string, len(r.DocumentNumbers))
		for registry, number := range r.DocumentNumbers {
			req.DocumentNumbers[providers.RegistryType(registry)] = number
		}
	}
	if r.Biometric != nil {
		req.Biometric = &matching.BiometricEvidence{
			Fingerprint: r.Biometric.Fingerprint,
			Face:        r.Biometric.Face,
		}
	}
	return req
}

// ResolveConflictRequest is the wire shape of a conflict arbitration.
type ResolveConflictRequest struct {
	Conflict    consolidation.Conflict `json:"conflict"`
	ChosenValue string                 `json:"chosen_value"`
	Reason      string                 `json:"reason,omitempty"`
}
