package engine

import (
	"strings"
	"time"

	"tya-notifications/internal/common/config"
	"tya-notifications/internal/models"
)

// Placeholder keys understood by the provider templates.
const (
	AppealRefKey              = "appeal_ref"
	AppealIDKey               = "appeal_id"
	BenefitNameAcronymKey     = "benefit_name_acronym"
	AppellantNameKey          = "appellant_name"
	NameKey                   = "name"
	RepresentativeNameKey     = "representative_name"
	AppointeeNameKey          = "appointee_name"
	HearingDateKey            = "hearing_date"
	HearingTimeKey            = "hearing_time"
	VenueNameKey              = "venue_name"
	VenueAddressKey           = "venue_address"
	VenueMapLinkKey           = "venue_map_link"
	ManageEmailsLinkKey       = "manage_emails_link"
	TrackAppealLinkKey        = "track_appeal_link"
	SubmitEvidenceInfoKey     = "submit_evidence_info_link"
	ClaimingExpensesLinkKey   = "claiming_expenses_link"
	HearingInfoLinkKey        = "hearing_info_link"
	PhoneNumberKey            = "phone_number"
	FirstTierAgencyAcronymKey = "first_tier_agency_acronym"

	AddressLine1Key  = "address_line1"
	AddressLine2Key  = "address_line2"
	AddressTownKey   = "address_town"
	AddressCountyKey = "address_county"
	PostcodeKey      = "postcode"
)

const (
	repSalutation          = "Sir / Madam"
	firstTierAgencyAcronym = "DWP"
	appealIDToken          = "{appeal_id}"
	hearingDateLayout      = "2 January 2006"
	hearingTimeLayout      = "03:04 PM"
)

// personalisationInput is everything a contributor may read.
type personalisationInput struct {
	eventType models.EventType
	c         models.CaseSnapshot
	recipient models.SubscriptionWithType
	links     config.LinksConfig
	phone     string
	loc       *time.Location
}

// A contributor returns the placeholders it owns. Contributors never see each
// other's output.
type contributor func(in personalisationInput) map[string]string

var contributors = []contributor{
	appealDetails,
	caseLinks,
	representativeDetails,
	appointeeDetails,
	hearingDetails,
	contactDetails,
	recipientName,
}

type Personaliser struct {
	links config.LinksConfig
	phone string
	loc   *time.Location
}

func NewPersonaliser(links config.LinksConfig, helplinePhone string, loc *time.Location) *Personaliser {
	if loc == nil {
		loc = time.UTC
	}
	return &Personaliser{links: links, phone: helplinePhone, loc: loc}
}

// Build runs the contributor pipeline for one recipient. Later contributors
// win on key collisions.
func (p *Personaliser) Build(eventType models.EventType, c models.CaseSnapshot, recipient models.SubscriptionWithType) map[string]string {
	in := personalisationInput{
		eventType: eventType,
		c:         c,
		recipient: recipient,
		links:     p.links,
		phone:     p.phone,
		loc:       p.loc,
	}
	out := make(map[string]string)
	for _, contribute := range contributors {
		for k, v := range contribute(in) {
			out[k] = v
		}
	}
	return out
}

func appealDetails(in personalisationInput) map[string]string {
	return map[string]string{
		AppealRefKey:              in.c.CaseReference,
		AppealIDKey:               in.recipient.Subscription.TyaNumber,
		BenefitNameAcronymKey:     strings.ToUpper(in.c.Appeal.BenefitCode),
		AppellantNameKey:          in.c.Appeal.Appellant.Name.FullNameNoTitle(),
		FirstTierAgencyAcronymKey: firstTierAgencyAcronym,
	}
}

func caseLinks(in personalisationInput) map[string]string {
	tya := in.recipient.Subscription.TyaNumber
	out := make(map[string]string)
	for key, link := range map[string]string{
		ManageEmailsLinkKey:     in.links.ManageEmails,
		TrackAppealLinkKey:      in.links.TrackAppeal,
		SubmitEvidenceInfoKey:   in.links.EvidenceSubmissionInfo,
		ClaimingExpensesLinkKey: in.links.ClaimingExpenses,
		HearingInfoLinkKey:      in.links.HearingInfo,
	} {
		if link != "" {
			out[key] = strings.ReplaceAll(link, appealIDToken, tya)
		}
	}
	return out
}

func representativeDetails(in personalisationInput) map[string]string {
	rep := in.c.Appeal.Representative
	if rep == nil {
		return nil
	}
	return map[string]string{RepresentativeNameKey: RepSalutation(rep)}
}

func appointeeDetails(in personalisationInput) map[string]string {
	if !in.c.HasAppointee() {
		return nil
	}
	return map[string]string{AppointeeNameKey: in.c.Appeal.Appointee.Name.FullNameNoTitle()}
}

func hearingDetails(in personalisationInput) map[string]string {
	hearing, ok := in.c.LatestHearing()
	if !ok {
		return nil
	}
	at := hearing.DateTime.In(in.loc)
	return map[string]string{
		HearingDateKey:  at.Format(hearingDateLayout),
		HearingTimeKey:  at.Format(hearingTimeLayout),
		VenueNameKey:    hearing.Venue.Name,
		VenueAddressKey: joinAddress(hearing.Venue.Address),
		VenueMapLinkKey: hearing.Venue.MapsLink,
	}
}

func contactDetails(in personalisationInput) map[string]string {
	if in.phone == "" {
		return nil
	}
	return map[string]string{PhoneNumberKey: in.phone}
}

func recipientName(in personalisationInput) map[string]string {
	if in.recipient.Role == models.RoleRepresentative && in.c.Appeal.Representative != nil {
		return map[string]string{NameKey: RepSalutation(in.c.Appeal.Representative)}
	}
	return map[string]string{NameKey: recipientParty(in.c, in.recipient.Role).Name.FullNameNoTitle()}
}

// RepSalutation addresses a representative by name, falling back to the
// organisation and then to a generic salutation.
func RepSalutation(rep *models.Representative) string {
	if isUnsetNamePart(rep.Name.First) || isUnsetNamePart(rep.Name.Last) {
		if strings.TrimSpace(rep.Organisation) != "" {
			return rep.Organisation
		}
		return repSalutation
	}
	return rep.Name.FullNameNoTitle()
}

func isUnsetNamePart(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "undefined")
}

// letterAddressPlaceholders fills the postal fields of a letter. Empty lines
// become a single space.
func letterAddressPlaceholders(dest models.Destination) map[string]string {
	orSpace := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return " "
		}
		return s
	}
	return map[string]string{
		AddressLine1Key:  orSpace(dest.Address.Line1),
		AddressLine2Key:  orSpace(dest.Address.Line2),
		AddressTownKey:   orSpace(dest.Address.Town),
		AddressCountyKey: orSpace(dest.Address.County),
		PostcodeKey:      orSpace(dest.Address.Postcode),
		NameKey:          orSpace(dest.Name),
	}
}

func joinAddress(a models.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.Line2, a.Town, a.County, a.Postcode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
