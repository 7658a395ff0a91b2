// Package xip decodes the repository's XML wire format into the typed
// entity graph. Optional fields decode tolerantly; missing required
// structure is a hard decode failure and is never retried.
package xip

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/preservio/papi/pkg/papi"
)

// Wire-format element and attribute names.
const (
	tagRef                   = "Ref"
	tagTitle                 = "Title"
	tagDescription           = "Description"
	tagSecurityTag           = "SecurityTag"
	tagDeleted               = "Deleted"
	tagParent                = "Parent"
	tagAdditionalInformation = "AdditionalInformation"
	tagGenerations           = "Generations"
	tagGeneration            = "Generation"
	tagBitstreams            = "Bitstreams"
	tagBitstream             = "Bitstream"
	tagFilename              = "Filename"
	tagFileSize              = "FileSize"
	tagFixities              = "Fixities"
	tagFixity                = "Fixity"
	tagFixityAlgorithmRef    = "FixityAlgorithmRef"
	tagFixityValue           = "FixityValue"
	tagContent               = "Content"
	tagPaging                = "Paging"
	tagNext                  = "Next"
	tagEntities              = "Entities"
	tagEntity                = "Entity"
	tagIdentifiers           = "Identifiers"
	tagIdentifier            = "Identifier"
	tagAPIID                 = "ApiId"
	tagType                  = "Type"
	tagValue                 = "Value"
	tagEventActions          = "EventActions"
	tagEventAction           = "EventAction"
	tagEvent                 = "Event"
	tagDate                  = "Date"
	tagLinks                 = "Links"
	tagLink                  = "Link"

	attrOriginal = "original"
	attrActive   = "active"
	attrRef      = "ref"
	attrType     = "type"
	attrTitle    = "title"
	attrLinkType = "linkType"
)

// eventDateLayouts are the timestamp layouts observed on event dates.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
}

// DecodedEntity is one entity together with the follow-up pointers carried
// in its response document.
type DecodedEntity struct {
	Entity *papi.Entity

	// GenerationsURL points at the generations listing for a content
	// object; empty for other types.
	GenerationsURL string
}

// entityTags are the recognized root child tags, in dispatch order.
var entityTags = []string{"SO", "IO", "CO"}

// DecodeEntity turns one entity response document into a typed Entity.
// The entity kind is dispatched on the root child tag name; an unrecognized
// tag yields EntityTypeUnknown, not an error. Optional fields (title,
// description, parent) decode to empty values when absent, and a security
// tag outside the known set decodes to SecurityTagUnknown.
func DecodeEntity(data []byte) (*DecodedEntity, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var node *Node

	entityType := papi.EntityTypeUnknown

	for _, tag := range entityTags {
		if child := root.Child(tag); child != nil {
			node = child
			entityType = papi.EntityTypeFromTag(tag)

			break
		}
	}

	entity := &papi.Entity{Type: entityType}

	if node != nil {
		entity.Ref = node.ChildText(tagRef)
		entity.Title = node.ChildText(tagTitle)
		entity.Description = node.ChildText(tagDescription)
		entity.SecurityTag = papi.ParseSecurityTag(node.ChildText(tagSecurityTag))
		entity.Parent = node.ChildText(tagParent)
		entity.Deleted = node.ChildText(tagDeleted) != ""
	}

	decoded := &DecodedEntity{Entity: entity}

	if info := root.Child(tagAdditionalInformation); info != nil {
		decoded.GenerationsURL = info.ChildText(tagGenerations)
	}

	return decoded, nil
}

// DecodeGenerationURLs extracts every generation URL from a generations
// listing. An empty list is a hard failure: a content object without
// generations is structurally invalid, not merely empty.
func DecodeGenerationURLs(data []byte) ([]string, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var urls []string

	if list := root.Child(tagGenerations); list != nil {
		for _, generation := range list.ChildList(tagGeneration) {
			if url := generation.TrimmedText(); url != "" {
				urls = append(urls, url)
			}
		}
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("%w", papi.ErrNoGenerations)
	}

	return urls, nil
}

// Generation is the decoded form of one generation document.
type Generation struct {
	Type          papi.GenerationType
	Active        bool
	BitstreamURLs []string
}

// DecodeGeneration decodes one generation document. The original attribute
// is required: "true" maps to Original, "false" to Derived, and anything
// else (including a missing attribute) is a decode error, never a default.
func DecodeGeneration(data []byte) (*Generation, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	node := root.Child(tagGeneration)
	if node == nil {
		// Some endpoints return the generation element as the root itself.
		node = root
	}

	original, ok := node.Attr(attrOriginal)
	if !ok {
		return nil, fmt.Errorf("%w", papi.ErrGenerationNoAttributes)
	}

	generation := &Generation{}

	switch original {
	case "true":
		generation.Type = papi.GenerationTypeOriginal
	case "false":
		generation.Type = papi.GenerationTypeDerived
	default:
		return nil, papi.NewDecodeError("unrecognized generation original attribute %q", original)
	}

	if active, hasActive := node.Attr(attrActive); hasActive {
		generation.Active = active == "true"
	}

	if list := root.Child(tagBitstreams); list != nil {
		for _, bitstream := range list.ChildList(tagBitstream) {
			if url := bitstream.TrimmedText(); url != "" {
				generation.BitstreamURLs = append(generation.BitstreamURLs, url)
			}
		}
	}

	return generation, nil
}

// Bitstream is the decoded form of one bitstream document.
type Bitstream struct {
	Name       string
	FileSize   int64
	ContentURL string
	Fixities   []papi.Fixity
}

// DecodeBitstream decodes one bitstream document: filename, size, content
// URL and the order-preserving fixity list.
func DecodeBitstream(data []byte) (*Bitstream, error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	node := root.Child(tagBitstream)
	if node == nil {
		node = root
	}

	bitstream := &Bitstream{
		Name: node.ChildText(tagFilename),
	}

	if size := node.ChildText(tagFileSize); size != "" {
		bitstream.FileSize, err = strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, papi.NewDecodeError("parsing bitstream file size %q: %v", size, err)
		}
	}

	if fixities := node.Child(tagFixities); fixities != nil {
		for _, fixity := range fixities.ChildList(tagFixity) {
			bitstream.Fixities = append(bitstream.Fixities, papi.Fixity{
				Algorithm: fixity.ChildText(tagFixityAlgorithmRef),
				Value:     fixity.ChildText(tagFixityValue),
			})
		}
	}

	if info := root.Child(tagAdditionalInformation); info != nil {
		bitstream.ContentURL = info.ChildText(tagContent)
	}

	return bitstream, nil
}

// DecodeEntityPage decodes one page of an entity listing (updated-since,
// by-identifier) into entity stubs plus the next-page cursor. Absent and
// empty Paging/Next both mean the listing is exhausted.
func DecodeEntityPage(data []byte) (*papi.Page[papi.Entity], error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	page := &papi.Page[papi.Entity]{Items: []papi.Entity{}, Next: nextURL(root)}

	if list := root.Child(tagEntities); list != nil {
		for _, node := range list.ChildList(tagEntity) {
			ref, _ := node.Attr(attrRef)
			typeTag, _ := node.Attr(attrType)
			title, _ := node.Attr(attrTitle)

			page.Items = append(page.Items, papi.Entity{
				Ref:   ref,
				Type:  papi.EntityTypeFromTag(typeTag),
				Title: title,
			})
		}
	}

	return page, nil
}

// DecodeIdentifierPage decodes one page of an identifier listing.
func DecodeIdentifierPage(data []byte) (*papi.Page[papi.Identifier], error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	page := &papi.Page[papi.Identifier]{Items: []papi.Identifier{}, Next: nextURL(root)}

	if list := root.Child(tagIdentifiers); list != nil {
		for _, node := range list.ChildList(tagIdentifier) {
			page.Items = append(page.Items, papi.Identifier{
				ID:    node.ChildText(tagAPIID),
				Name:  node.ChildText(tagType),
				Value: node.ChildText(tagValue),
			})
		}
	}

	return page, nil
}

// DecodeEventActionPage decodes one page of an event-action listing. Page
// order is preserved here; the façade reverses the accumulated result into
// most-recent-first order.
func DecodeEventActionPage(data []byte) (*papi.Page[papi.EventAction], error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	page := &papi.Page[papi.EventAction]{Items: []papi.EventAction{}, Next: nextURL(root)}

	if list := root.Child(tagEventActions); list != nil {
		for _, node := range list.ChildList(tagEventAction) {
			event := node.Child(tagEvent)
			if event == nil {
				return nil, papi.NewDecodeError("event action has no event element")
			}

			eventType, _ := event.Attr(attrType)

			date, err := parseEventDate(event.ChildText(tagDate))
			if err != nil {
				return nil, err
			}

			page.Items = append(page.Items, papi.EventAction{
				EventRef:  event.ChildText(tagRef),
				EventType: eventType,
				Date:      date,
			})
		}
	}

	return page, nil
}

// DecodeLinkPage decodes one page of an entity-link listing.
func DecodeLinkPage(data []byte) (*papi.Page[papi.EntityLink], error) {
	root, err := Parse(data)
	if err != nil {
		return nil, err
	}

	page := &papi.Page[papi.EntityLink]{Items: []papi.EntityLink{}, Next: nextURL(root)}

	if list := root.Child(tagLinks); list != nil {
		for _, node := range list.ChildList(tagLink) {
			linkType, _ := node.Attr(attrLinkType)
			ref, _ := node.Attr(attrRef)
			typeTag, _ := node.Attr(attrType)

			page.Items = append(page.Items, papi.EntityLink{
				LinkType: linkType,
				Ref:      ref,
				Type:     papi.EntityTypeFromTag(typeTag),
			})
		}
	}

	return page, nil
}

// identifierRequest is the XML body for adding an identifier.
type identifierRequest struct {
	XMLName xml.Name `xml:"Identifier"`
	Type    string   `xml:"Type"`
	Value   string   `xml:"Value"`
}

// EncodeIdentifier renders the XML request body for adding an identifier.
func EncodeIdentifier(name, value string) ([]byte, error) {
	data, err := xml.Marshal(identifierRequest{Type: name, Value: value})
	if err != nil {
		return nil, fmt.Errorf("encoding identifier: %w", err)
	}

	return data, nil
}

// DecodeIdentifierRequest decodes an identifier request body. It exists for
// the encode/decode round-trip guarantee on {name, value}.
func DecodeIdentifierRequest(data []byte) (*papi.Identifier, error) {
	var request identifierRequest

	err := xml.Unmarshal(data, &request)
	if err != nil {
		return nil, papi.NewDecodeError("parsing identifier request: %v", err)
	}

	return &papi.Identifier{Name: request.Type, Value: request.Value}, nil
}

// folderRequest is the XML body for creating a structural object.
type folderRequest struct {
	XMLName     xml.Name `xml:"StructuralObject"`
	Title       string   `xml:"Title"`
	Description string   `xml:"Description,omitempty"`
	SecurityTag string   `xml:"SecurityTag,omitempty"`
	Parent      string   `xml:"Parent,omitempty"`
}

// EncodeFolder renders the XML request body for creating a folder.
func EncodeFolder(request *papi.CreateFolderRequest) ([]byte, error) {
	data, err := xml.Marshal(folderRequest{
		Title:       request.Title,
		Description: request.Description,
		SecurityTag: string(request.SecurityTag),
		Parent:      request.Parent,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding folder request: %w", err)
	}

	return data, nil
}

// entityUpdate is the XML body for updating an entity's descriptive fields.
type entityUpdate struct {
	XMLName     xml.Name
	Ref         string `xml:"Ref"`
	Title       string `xml:"Title,omitempty"`
	Description string `xml:"Description,omitempty"`
	SecurityTag string `xml:"SecurityTag,omitempty"`
	Parent      string `xml:"Parent,omitempty"`
}

// entityUpdateTags maps entity types to their update element names.
var entityUpdateTags = map[papi.EntityType]string{
	papi.EntityTypeStructuralObject:  "StructuralObject",
	papi.EntityTypeInformationObject: "InformationObject",
	papi.EntityTypeContentObject:     "ContentObject",
}

// EncodeEntityUpdate renders the XML request body for an entity update.
func EncodeEntityUpdate(entity *papi.Entity) ([]byte, error) {
	tag, ok := entityUpdateTags[entity.Type]
	if !ok {
		return nil, fmt.Errorf("%w", papi.ErrUnknownEntityType)
	}

	data, err := xml.Marshal(entityUpdate{
		XMLName:     xml.Name{Local: tag},
		Ref:         entity.Ref,
		Title:       entity.Title,
		Description: entity.Description,
		SecurityTag: string(entity.SecurityTag),
		Parent:      entity.Parent,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding entity update: %w", err)
	}

	return data, nil
}

// nextURL extracts the Paging/Next cursor, or "" when exhausted.
func nextURL(root *Node) string {
	paging := root.Child(tagPaging)
	if paging == nil {
		return ""
	}

	return paging.ChildText(tagNext)
}

// parseEventDate parses an event timestamp against the known layouts.
func parseEventDate(value string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, papi.NewDecodeError("parsing event date %q", value)
}
