package scheme

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Enrolled lists the schemes a user already benefits from. It is persisted as
// JSON and used to hide those schemes from future results.
type Enrolled struct {
	Items []*EnrolledScheme
}

type EnrolledScheme struct {
	Name       string
	ApplyLink  string
	Department string
	EnrolledAt time.Time
}

// ToEnrolled converts the collection into enrolled entries stamped with now.
func (s *Schemes) ToEnrolled() *Enrolled {
	enrolled := &Enrolled{}
	for _, item := range s.Items {
		enrolled.Items = append(enrolled.Items, &EnrolledScheme{
			Name:       item.Name,
			ApplyLink:  item.ApplyLink,
			Department: item.Department,
			EnrolledAt: time.Now().UTC(),
		})
	}
	return enrolled
}

// GetEnrolledFromFile loads the enrolled list. A missing or empty file yields
// an empty list.
func GetEnrolledFromFile(path string) (*Enrolled, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Enrolled{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Enrolled{}, nil
	}

	var enrolled Enrolled
	if err := json.NewDecoder(file).Decode(&enrolled); err != nil {
		return nil, err
	}
	return &enrolled, nil
}

// Append adds the entries of other that are not listed yet.
func (e *Enrolled) Append(other *Enrolled) {
	known := make(map[string]struct{}, len(e.Items))
	for _, item := range e.Items {
		known[nameKey(item.Name)] = struct{}{}
	}
	for _, item := range other.Items {
		if _, ok := known[nameKey(item.Name)]; ok {
			continue
		}
		known[nameKey(item.Name)] = struct{}{}
		e.Items = append(e.Items, item)
	}
}

func (e *Enrolled) Names() []string {
	names := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		names = append(names, item.Name)
	}
	return names
}

func (e *Enrolled) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
