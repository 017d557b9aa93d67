package osm

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

type xmlTag struct {
	XMLName xml.Name `xml:"tag"`
	K       string   `xml:"k,attr"`
	V       string   `xml:"v,attr"`
}

type xmlND struct {
	XMLName xml.Name `xml:"nd"`
	Ref     int64    `xml:"ref,attr"`
}

type xmlMember struct {
	XMLName xml.Name `xml:"member"`
	Type    string   `xml:"type,attr"`
	Ref     int64    `xml:"ref,attr"`
	Role    string   `xml:"role,attr"`
}

type xmlElement struct {
	XMLName   xml.Name
	ID        int64       `xml:"id,attr"`
	Version   int         `xml:"version,attr"`
	Changeset int64       `xml:"changeset,attr"`
	Lat       *float64    `xml:"lat,attr,omitempty"`
	Lon       *float64    `xml:"lon,attr,omitempty"`
	Nds       []xmlND     `xml:"nd"`
	Members   []xmlMember `xml:"member"`
	Tags      []xmlTag    `xml:"tag"`
}

type xmlChangeset struct {
	XMLName xml.Name `xml:"osm"`
	Tags    []xmlTag `xml:"changeset>tag"`
}

func (c *client) UploadChangeset(ctx context.Context, tags map[string]string, changes Changes) (int64, error) {
	if changes.Empty() {
		return 0, eris.New("osm: empty changeset")
	}

	id, err := c.openChangeset(ctx, tags)
	if err != nil {
		return 0, eris.Wrap(err, "osm: open changeset")
	}

	if err := c.uploadChanges(ctx, id, changes); err != nil {
		// Close anyway so the changeset is not left dangling.
		_ = c.closeChangeset(ctx, id)
		return id, eris.Wrap(err, fmt.Sprintf("osm: upload changeset %d", id))
	}

	if err := c.closeChangeset(ctx, id); err != nil {
		return id, eris.Wrap(err, fmt.Sprintf("osm: close changeset %d", id))
	}
	return id, nil
}

func (c *client) openChangeset(ctx context.Context, tags map[string]string) (int64, error) {
	doc := xmlChangeset{}
	for _, k := range sortedKeys(tags) {
		doc.Tags = append(doc.Tags, xmlTag{K: k, V: tags[k]})
	}
	body, err := xml.Marshal(doc)
	if err != nil {
		return 0, eris.Wrap(err, "marshal")
	}

	data, err := c.do(ctx, http.MethodPut, c.baseURL+"/api/0.6/changeset/create", "text/xml", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, eris.Wrap(err, "parse changeset id")
	}
	return id, nil
}

func (c *client) uploadChanges(ctx context.Context, changesetID int64, changes Changes) error {
	body, err := encodeOsmChange(changesetID, changes)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/0.6/changeset/%d/upload", c.baseURL, changesetID)
	_, err = c.do(ctx, http.MethodPost, url, "text/xml", bytes.NewReader(body))
	return err
}

func (c *client) closeChangeset(ctx context.Context, changesetID int64) error {
	url := fmt.Sprintf("%s/api/0.6/changeset/%d/close", c.baseURL, changesetID)
	_, err := c.do(ctx, http.MethodPut, url, "", nil)
	return err
}

// encodeOsmChange renders the osmChange document by hand: the three action
// blocks hold heterogeneous element names, which struct tags cannot express.
func encodeOsmChange(changesetID int64, changes Changes) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<osmChange version="0.6" generator="phone-report">`)

	blocks := []struct {
		action   string
		elements []Element
	}{
		{"create", changes.Create},
		{"modify", changes.Modify},
		{"delete", changes.Delete},
	}
	for _, b := range blocks {
		if len(b.elements) == 0 {
			continue
		}
		buf.WriteString("<" + b.action + ">")
		for _, e := range b.elements {
			data, err := xml.Marshal(toXMLElement(e, changesetID))
			if err != nil {
				return nil, eris.Wrap(err, "marshal element")
			}
			buf.Write(data)
		}
		buf.WriteString("</" + b.action + ">")
	}

	buf.WriteString("</osmChange>")
	return buf.Bytes(), nil
}

func toXMLElement(e Element, changesetID int64) xmlElement {
	out := xmlElement{
		XMLName:   xml.Name{Local: e.Type},
		ID:        e.ID,
		Version:   e.Version,
		Changeset: changesetID,
	}
	if e.Type == "node" {
		lat, lon := e.Lat, e.Lon
		out.Lat, out.Lon = &lat, &lon
	}
	for _, ref := range e.Nodes {
		out.Nds = append(out.Nds, xmlND{Ref: ref})
	}
	for _, m := range e.Members {
		out.Members = append(out.Members, xmlMember{Type: m.Type, Ref: m.Ref, Role: m.Role})
	}
	for _, k := range sortedKeys(e.Tags) {
		out.Tags = append(out.Tags, xmlTag{K: k, V: e.Tags[k]})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
