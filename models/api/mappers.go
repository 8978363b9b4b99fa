package api

import (
	"callfloor/models"
)

// DomainLeadToAPILead converts a claimed lead to its wire form.
func DomainLeadToAPILead(lead *models.Lead) *APILead {
	if lead == nil {
		return nil
	}
	return &APILead{
		ID:        lead.ID,
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Campaign:  lead.CampaignID,
	}
}

// DomainDispatchResultToAPIResponse converts a dispatch outcome to the
// autodial wire form. The "live" and "wrapup" outcomes are first-class
// results, not errors; the empty outcome serializes with no lead.
func DomainDispatchResultToAPIResponse(result *models.DispatchResult) *AutodialResponse {
	resp := &AutodialResponse{Status: string(result.Outcome)}
	if result.Outcome == models.DispatchOutcomeLead {
		resp.Lead = DomainLeadToAPILead(result.Lead)
	}
	return resp
}
