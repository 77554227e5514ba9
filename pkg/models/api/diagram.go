package api

import "time"

type Resource struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Name       string         `json:"name,omitempty"`
	Region     string         `json:"region,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

type Warning struct {
	Rule      string `json:"rule"`
	From      string `json:"from"`
	Attribute string `json:"attribute"`
	Ref       string `json:"ref"`
}

type ReadError struct {
	Service string `json:"service"`
	Message string `json:"message"`
}

type Node struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Group      string   `json:"group,omitempty"`
	Kind       string   `json:"kind,omitempty"`
	Label      string   `json:"label"`
	Public     bool     `json:"public,omitempty"`
	ResourceID string   `json:"resource_id,omitempty"`
	Count      int      `json:"count,omitempty"`
	Members    []string `json:"members,omitempty"`
	Represents []string `json:"represents,omitempty"`
	Children   []Node   `json:"children,omitempty"`
}

type Connector struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

type Diagram struct {
	Title      string      `json:"title"`
	Nodes      []Node      `json:"nodes"`
	Connectors []Connector `json:"connectors"`
}

type Run struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Profile   string         `json:"profile,omitempty"`
	Region    string         `json:"region,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Resources int            `json:"resources"`
	Edges     int            `json:"edges"`
	Kinds     map[string]int `json:"kinds,omitempty"`
}
