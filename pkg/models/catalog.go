package models

import "time"

// Topic un asunto dentro de una materia, con la URL de su cuestionario
type Topic struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Subject una materia del índice principal.
// En la variante plana (lista de disciplinas) URL apunta directo al cuestionario y no hay Topics.
type Subject struct {
	Name   string  `json:"name"`
	URL    string  `json:"url,omitempty"`
	Topics []Topic `json:"topics,omitempty"`
}

// IsFlat indica si la materia lleva directo a un cuestionario
func (s Subject) IsFlat() bool {
	return s.URL != ""
}

// Topic busca un asunto por nombre
func (s Subject) Topic(name string) (Topic, bool) {
	for _, t := range s.Topics {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}

// Catalog índice principal de materias, en el orden del documento remoto
type Catalog struct {
	Subjects []Subject `json:"subjects"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Subject busca una materia por nombre
func (c *Catalog) Subject(name string) (Subject, bool) {
	if c == nil {
		return Subject{}, false
	}
	for _, s := range c.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return Subject{}, false
}

// Names devuelve los nombres de las materias en orden
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Subjects))
	for i, s := range c.Subjects {
		names[i] = s.Name
	}
	return names
}
