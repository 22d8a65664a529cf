package applist

import "fmt"

// Kind discriminates the AccessPoint tagged union (spec.md §4.1
// AccessPoint). DefaultAccessPoint further discriminates by Default.
type Kind string

const (
	KindCapabilityRegistration Kind = "capability-registration"
	KindMenuEntry              Kind = "menu-entry"
	KindDesktopIcon            Kind = "desktop-icon"
	KindSendTo                 Kind = "send-to"
	KindAppAlias               Kind = "app-alias"
	KindAutoStart              Kind = "auto-start"
	KindDefaultAccessPoint     Kind = "default-access-point"
)

// DefaultKind discriminates the five DefaultAccessPoint sub-variants.
type DefaultKind string

const (
	DefaultAutoPlay    DefaultKind = "auto-play"
	DefaultContextMenu DefaultKind = "context-menu"
	DefaultProgram     DefaultKind = "default-program"
	DefaultFileType    DefaultKind = "file-type"
	DefaultURLProtocol DefaultKind = "url-protocol"
)

// AccessPoint is one desktop-integration artefact attached to an
// AppEntry. Exactly one of the per-kind fields is meaningful,
// selected by Kind — the sum-type shape the XML codec and the
// platform apply/unapply handlers both switch on.
type AccessPoint struct {
	Kind Kind

	// CapabilityRegistration / MenuEntry / SendTo / AppAlias / AutoStart
	CapabilityID string // which feed Capability this realizes, where applicable
	Category     string // menu category path, SendTo/AutoStart label, or alias name

	// DefaultAccessPoint
	Default    DefaultKind
	Extension  string // ".txt", for Default==DefaultFileType
	ProtocolID string // "mailto", for Default==DefaultURLProtocol
}

// ConflictIDs returns the set of conflict keys this access point
// contends for within an AppEntry (spec.md §4.E conflict detection).
func (ap AccessPoint) ConflictIDs(app *AppEntry) []string {
	switch ap.Kind {
	case KindCapabilityRegistration:
		return []string{"capability:" + ap.CapabilityID}
	case KindMenuEntry:
		return []string{"menu:" + app.InterfaceURI + ":" + ap.Category}
	case KindDesktopIcon:
		return []string{"desktop:" + app.InterfaceURI}
	case KindSendTo:
		return []string{"send-to:" + app.InterfaceURI + ":" + ap.Category}
	case KindAppAlias:
		return []string{"alias:" + ap.Category}
	case KindAutoStart:
		return []string{"auto-start:" + app.InterfaceURI}
	case KindDefaultAccessPoint:
		switch ap.Default {
		case DefaultFileType:
			return []string{"file-ext:" + ap.Extension}
		case DefaultURLProtocol:
			return []string{"url-protocol:" + ap.ProtocolID}
		case DefaultAutoPlay, DefaultContextMenu, DefaultProgram:
			return []string{fmt.Sprintf("default:%s:%s", ap.Default, app.InterfaceURI)}
		}
	}
	return nil
}

// Equal reports whether two access points carry identical data, used
// by the conflict detector to distinguish a harmless re-registration
// from a genuine NewConflict.
func (ap AccessPoint) Equal(other AccessPoint) bool {
	return ap == other
}
