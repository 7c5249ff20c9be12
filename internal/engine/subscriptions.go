package engine

import "tya-notifications/internal/models"

// ResolveSubscriptions returns the recipients of eventType in send order. An
// appointee replaces the appellant and is the only recipient.
func ResolveSubscriptions(eventType models.EventType, c models.CaseSnapshot) []models.SubscriptionWithType {
	if c.HasAppointee() {
		return []models.SubscriptionWithType{
			{Role: models.RoleAppointee, Subscription: c.Subscriptions.For(models.RoleAppointee)},
		}
	}

	out := []models.SubscriptionWithType{
		{Role: models.RoleAppellant, Subscription: c.Subscriptions.For(models.RoleAppellant)},
	}
	if eventType.IncludesRepresentative() && c.Subscriptions.Representative != nil {
		out = append(out, models.SubscriptionWithType{
			Role:         models.RoleRepresentative,
			Subscription: *c.Subscriptions.Representative,
		})
	}
	return out
}

// recipientParty returns the name and address on file for role.
func recipientParty(c models.CaseSnapshot, role models.Role) models.Party {
	switch role {
	case models.RoleAppointee:
		if c.Appeal.Appointee != nil {
			return *c.Appeal.Appointee
		}
	case models.RoleRepresentative:
		if c.Appeal.Representative != nil {
			return c.Appeal.Representative.Party
		}
	}
	return c.Appeal.Appellant
}
