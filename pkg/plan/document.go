package plan

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// taskNamespace seeds stable ids for tasks written without one.
var taskNamespace = uuid.MustParse("0b4f3d9e-58c1-4c07-8f0e-3d2a6c9b7e11")

type documentRecord struct {
	Week      string       `yaml:"week"`
	Insight   string       `yaml:"insight"`
	AIInsight string       `yaml:"ai_insight"`
	Goals     []goalRecord `yaml:"goals"`
	Events    []yaml.Node  `yaml:"events"`
}

type goalRecord struct {
	Role  string      `yaml:"role"`
	Items []yaml.Node `yaml:"items"`
}

type taskRecord struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	EstimatedHours yaml.Node `yaml:"estimated_hours"`
	Status         string    `yaml:"status"`
}

type eventRecord struct {
	ID     string `yaml:"id"`
	TaskID string `yaml:"taskId"`
	Type   string `yaml:"type"`
	Title  string `yaml:"title"`
	Start  string `yaml:"start"`
	End    string `yaml:"end"`
	Color  string `yaml:"color"`
}

// NewDocument returns the default skeleton for a week with one empty goal per role.
func NewDocument(week string, roles []string) *Document {
	d := &Document{Week: week}
	for _, r := range roles {
		d.Goals = append(d.Goals, &Goal{Role: r})
	}
	return d
}

// Parse turns raw text into a fully defaulted Document. The text is either a
// Markdown file with YAML frontmatter or a bare YAML mapping. Events come back
// sorted by start and statuses reconciled.
func Parse(content string) (*Document, error) {
	yamlContent, body, lineOffset, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	doc := &Document{Notes: body}
	if strings.TrimSpace(yamlContent) == "" {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(yamlContent), &root); err != nil {
		return nil, &ParseError{Line: yamlErrorLine(err, lineOffset), Err: err}
	}
	if len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: top.Line + lineOffset, Err: errors.New("document must be a mapping")}
	}

	var rec documentRecord
	if err := top.Decode(&rec); err != nil {
		return nil, &ParseError{Line: yamlErrorLine(err, lineOffset), Err: err}
	}

	doc.Week = rec.Week
	doc.Insight = rec.Insight
	if doc.Insight == "" {
		doc.Insight = rec.AIInsight
	}

	taskIDs := make(map[string]bool)
	for gi, gr := range rec.Goals {
		goal := &Goal{Role: gr.Role}
		for ti, node := range gr.Items {
			task, err := decodeTask(&node, gr.Role, gi, ti)
			if err != nil {
				return nil, &ParseError{Line: node.Line + lineOffset, Err: err}
			}
			if taskIDs[task.ID] {
				return nil, &ParseError{Line: node.Line + lineOffset, Err: fmt.Errorf("duplicate task id %q", task.ID)}
			}
			taskIDs[task.ID] = true
			goal.Items = append(goal.Items, task)
		}
		doc.Goals = append(doc.Goals, goal)
	}

	eventIDs := make(map[string]bool)
	for _, node := range rec.Events {
		ev, err := decodeEvent(&node)
		if err != nil {
			return nil, &ParseError{Line: node.Line + lineOffset, Err: err}
		}
		if eventIDs[ev.ID] {
			return nil, &ParseError{Line: node.Line + lineOffset, Err: fmt.Errorf("duplicate event id %q", ev.ID)}
		}
		eventIDs[ev.ID] = true
		doc.Events = append(doc.Events, ev)
	}

	SortEvents(doc.Events)
	Reconcile(doc)
	return doc, nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+):`)

// yamlErrorLine pulls the first line number out of a yaml.v3 error message.
func yamlErrorLine(err error, lineOffset int) int {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n + lineOffset
}

// splitFrontmatter separates YAML from the Markdown body. lineOffset is the
// number of lines preceding the YAML so node lines map back to the file.
func splitFrontmatter(content string) (yamlContent, body string, lineOffset int, err error) {
	trimmed := strings.TrimLeft(content, "\n")
	leading := len(content) - len(trimmed)

	if !strings.HasPrefix(trimmed, frontmatterDelimiter) {
		// No frontmatter: the whole file is YAML.
		return content, "", 0, nil
	}

	rest := trimmed[len(frontmatterDelimiter):]
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx == -1 {
		return "", "", 0, &ParseError{Line: leading + 1, Err: errors.New("unclosed frontmatter delimiter")}
	}

	yamlContent = rest[:idx]
	body = rest[idx+len("\n"+frontmatterDelimiter):]
	// Drop the remainder of the closing delimiter line.
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	body = strings.TrimLeft(body, "\n")
	return yamlContent, body, leading, nil
}

func decodeTask(node *yaml.Node, role string, goalIdx, taskIdx int) (*Task, error) {
	var rec taskRecord
	if err := node.Decode(&rec); err != nil {
		return nil, err
	}
	if rec.ID == "" {
		name := fmt.Sprintf("%s\x00%d\x00%d\x00%s", role, goalIdx, taskIdx, rec.Title)
		rec.ID = uuid.NewSHA1(taskNamespace, []byte(name)).String()
	}

	task := NewTask(rec.ID, rec.Title, parseEstimate(&rec.EstimatedHours))
	task.setStatus(Status(strings.ToLower(strings.TrimSpace(rec.Status))))
	return task, nil
}

// parseEstimate falls back to DefaultEstimate for absent, unparseable or non-positive values.
func parseEstimate(node *yaml.Node) float64 {
	if node.Kind != yaml.ScalarNode {
		return DefaultEstimate
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
	if err != nil || v <= 0 {
		return DefaultEstimate
	}
	return v
}

func decodeEvent(node *yaml.Node) (Event, error) {
	var rec eventRecord
	if err := node.Decode(&rec); err != nil {
		return Event{}, err
	}
	if rec.ID == "" {
		return Event{}, errors.New("event without id")
	}

	start, err := ParseTimestamp(rec.Start)
	if err != nil {
		return Event{}, fmt.Errorf("event %s start: %w", rec.ID, err)
	}
	end, err := ParseTimestamp(rec.End)
	if err != nil || !start.Before(end) {
		end = start.Add(DefaultBlockLength)
	}

	ev := Event{
		ID:     rec.ID,
		TaskID: rec.TaskID,
		Type:   EventType(strings.ToLower(rec.Type)),
		Title:  rec.Title,
		Start:  start,
		End:    end,
		Color:  rec.Color,
	}
	if ev.TaskID == "" {
		ev.TaskID = ev.ID
	}
	if ev.Type != EventOutlook {
		ev.Type = EventTask
	}
	return ev, nil
}

type taskOut struct {
	ID             string  `yaml:"id"`
	Title          string  `yaml:"title"`
	EstimatedHours float64 `yaml:"estimated_hours"`
	Status         Status  `yaml:"status"`
}

type goalOut struct {
	Role  string    `yaml:"role"`
	Items []taskOut `yaml:"items"`
}

type eventOut struct {
	ID     string    `yaml:"id"`
	TaskID string    `yaml:"taskId"`
	Type   EventType `yaml:"type"`
	Title  string    `yaml:"title"`
	Start  Timestamp `yaml:"start"`
	End    Timestamp `yaml:"end"`
	Color  string    `yaml:"color,omitempty"`
}

type documentOut struct {
	Week    string     `yaml:"week"`
	Insight string     `yaml:"insight"`
	Goals   []goalOut  `yaml:"goals"`
	Events  []eventOut `yaml:"events"`
}

// Serialize renders a Document as Markdown with YAML frontmatter.
func Serialize(d *Document) (string, error) {
	out := documentOut{
		Week:    d.Week,
		Insight: d.Insight,
		Goals:   []goalOut{},
		Events:  []eventOut{},
	}
	for _, g := range d.Goals {
		og := goalOut{Role: g.Role, Items: []taskOut{}}
		for _, t := range g.Items {
			og.Items = append(og.Items, taskOut{
				ID:             t.ID,
				Title:          t.Title,
				EstimatedHours: t.EstimatedHours,
				Status:         t.Status(),
			})
		}
		out.Goals = append(out.Goals, og)
	}
	for _, e := range d.Events {
		out.Events = append(out.Events, eventOut{
			ID:     e.ID,
			TaskID: e.TaskID,
			Type:   e.Type,
			Title:  e.Title,
			Start:  e.Start,
			End:    e.End,
			Color:  e.Color,
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return "", fmt.Errorf("serializing document YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("serializing document YAML: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(buf.String(), "\n"))
	b.WriteString("\n")
	b.WriteString(frontmatterDelimiter)
	b.WriteString("\n")
	if d.Notes != "" {
		b.WriteString("\n")
		b.WriteString(d.Notes)
		if !strings.HasSuffix(d.Notes, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}
