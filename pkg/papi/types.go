package papi

import (
	"time"
)

// EntityType identifies a node kind in the preserved-content hierarchy.
type EntityType string

const (
	// EntityTypeStructuralObject is a folder-like container entity.
	EntityTypeStructuralObject EntityType = "SO"

	// EntityTypeInformationObject is an intellectual asset entity.
	EntityTypeInformationObject EntityType = "IO"

	// EntityTypeContentObject is a physical content entity owning bitstreams.
	EntityTypeContentObject EntityType = "CO"

	// EntityTypeUnknown is reported when the API returns an unrecognized
	// entity tag. It is not an error; callers that require a concrete type
	// must validate separately.
	EntityTypeUnknown EntityType = ""
)

// entityTypePaths is the wire mapping from entity type to URL path segment.
var entityTypePaths = map[EntityType]string{
	EntityTypeStructuralObject:  "structural-objects",
	EntityTypeInformationObject: "information-objects",
	EntityTypeContentObject:     "content-objects",
}

// Path returns the API path segment for the entity type, or "" for unknown.
func (t EntityType) Path() string {
	return entityTypePaths[t]
}

// EntityTypeFromTag maps a response tag name (SO, IO, CO) to an EntityType.
// Unrecognized tags map to EntityTypeUnknown.
func EntityTypeFromTag(tag string) EntityType {
	switch tag {
	case "SO":
		return EntityTypeStructuralObject
	case "IO":
		return EntityTypeInformationObject
	case "CO":
		return EntityTypeContentObject
	default:
		return EntityTypeUnknown
	}
}

// SecurityTag is an access-control classification on an entity.
type SecurityTag string

const (
	// SecurityTagOpen marks an entity readable without restriction.
	SecurityTagOpen SecurityTag = "open"

	// SecurityTagClosed marks an entity with restricted access.
	SecurityTagClosed SecurityTag = "closed"

	// SecurityTagUnknown is reported for values outside the known set.
	SecurityTagUnknown SecurityTag = ""
)

// ParseSecurityTag maps a wire value to a SecurityTag. Values outside the
// known set yield SecurityTagUnknown rather than an error.
func ParseSecurityTag(value string) SecurityTag {
	switch value {
	case "open":
		return SecurityTagOpen
	case "closed":
		return SecurityTagClosed
	default:
		return SecurityTagUnknown
	}
}

// GenerationType distinguishes original from derived manifestations.
type GenerationType string

const (
	// GenerationTypeOriginal is the as-ingested manifestation.
	GenerationTypeOriginal GenerationType = "Original"

	// GenerationTypeDerived is a migrated or normalized manifestation.
	GenerationTypeDerived GenerationType = "Derived"
)

// Entity represents a node in the preserved-content hierarchy.
type Entity struct {
	Type        EntityType  `json:"type"                  yaml:"type"`
	Ref         string      `json:"ref"                   yaml:"ref"`
	Title       string      `json:"title,omitempty"       yaml:"title,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	SecurityTag SecurityTag `json:"security_tag"          yaml:"security_tag"`
	Parent      string      `json:"parent,omitempty"      yaml:"parent,omitempty"`
	Deleted     bool        `json:"deleted"               yaml:"deleted"`
}

// Path returns the API path segment for this entity. It is derived from the
// entity type and cannot be set independently.
func (e *Entity) Path() string {
	return e.Type.Path()
}

// Fixity is a named-algorithm content hash used to verify bitstream
// integrity. Order within a bitstream's fixity list is preserved.
type Fixity struct {
	Algorithm string `json:"algorithm" yaml:"algorithm"`
	Value     string `json:"value"     yaml:"value"`
}

// BitStreamInfo describes one physical file payload belonging to a
// generation. One BitStreamInfo is produced per bitstream-generation pairing.
type BitStreamInfo struct {
	Name              string         `json:"name"                   yaml:"name"`
	FileSize          int64          `json:"file_size"              yaml:"file_size"`
	URL               string         `json:"url"                    yaml:"url"`
	Fixities          []Fixity       `json:"fixities"               yaml:"fixities"`
	GenerationVersion int            `json:"generation_version"     yaml:"generation_version"`
	GenerationType    GenerationType `json:"generation_type"        yaml:"generation_type"`
	ParentTitle       string         `json:"parent_title,omitempty" yaml:"parent_title,omitempty"`
	ParentRef         string         `json:"parent_ref,omitempty"   yaml:"parent_ref,omitempty"`
}

// Identifier is an external identifier bound to one entity. An entity may
// carry zero or more identifiers; names are not required to be unique.
type Identifier struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty"`
	Name  string `json:"name"         yaml:"name"`
	Value string `json:"value"        yaml:"value"`
}

// EventAction records one lifecycle event on an entity. Listings are
// returned most-recent-first regardless of the API's page order.
type EventAction struct {
	EventRef  string    `json:"event_ref"  yaml:"event_ref"`
	EventType string    `json:"event_type" yaml:"event_type"`
	Date      time.Time `json:"date"       yaml:"date"`
}

// EntityLink is a typed relationship between two entities.
type EntityLink struct {
	LinkType string     `json:"link_type" yaml:"link_type"`
	Ref      string     `json:"ref"       yaml:"ref"`
	Type     EntityType `json:"type"      yaml:"type"`
}

// WorkflowInstance represents a started workflow run.
type WorkflowInstance struct {
	ID            string `json:"id"             yaml:"id"`
	State         string `json:"state"          yaml:"state"`
	CorrelationID string `json:"correlation_id" yaml:"correlation_id"`
}

// Process represents one process-monitor entry.
type Process struct {
	ID       string `json:"id"       yaml:"id"`
	Category string `json:"category" yaml:"category"`
	Status   string `json:"status"   yaml:"status"`
	Progress int    `json:"progress" yaml:"progress"`
}

// ProcessMessage is one message emitted by a monitored process.
type ProcessMessage struct {
	Sequence int    `json:"sequence" yaml:"sequence"`
	Level    string `json:"level"    yaml:"level"`
	Message  string `json:"message"  yaml:"message"`
}
