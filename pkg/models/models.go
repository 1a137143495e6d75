package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// QuestionID identificador de una pregunta: el JSON remoto lo envía como número o como texto
type QuestionID struct {
	value   string
	numeric bool
}

// NewNumericID crea un identificador numérico
func NewNumericID(n int64) QuestionID {
	return QuestionID{value: strconv.FormatInt(n, 10), numeric: true}
}

// NewStringID crea un identificador de texto
func NewStringID(s string) QuestionID {
	return QuestionID{value: s}
}

// String devuelve la forma textual del identificador
func (id QuestionID) String() string {
	return id.value
}

// IsNumeric indica si el identificador llegó como número
func (id QuestionID) IsNumeric() bool {
	return id.numeric
}

// UnmarshalJSON acepta un número o un string; cualquier otro tipo es un error
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch KindOf(data) {
	case KindString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID{value: s}
		return nil
	case KindNumber:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = QuestionID{value: n.String(), numeric: true}
		return nil
	default:
		return fmt.Errorf("id debe ser número o string, recibido %s", KindOf(data))
	}
}

// MarshalJSON conserva el tipo original del identificador
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// Question estructura para representar una pregunta del quiz
type Question struct {
	ID          QuestionID `json:"id"`
	Question    string     `json:"question"`
	Options     []string   `json:"options"`
	Correct     int        `json:"correct"`
	Explanation string     `json:"explanation"`
}

// IsCorrect indica si la opción elegida es la correcta
func (q Question) IsCorrect(option int) bool {
	return q.Correct == option
}

// APIResponse estructura estándar para respuestas de API
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSONKind tipo primitivo de un valor JSON crudo
type JSONKind string

const (
	KindNull    JSONKind = "null"
	KindBool    JSONKind = "boolean"
	KindNumber  JSONKind = "number"
	KindString  JSONKind = "string"
	KindArray   JSONKind = "array"
	KindObject  JSONKind = "object"
	KindInvalid JSONKind = "invalid"
)

// KindOf clasifica un valor JSON crudo por su primer byte significativo
func KindOf(raw []byte) JSONKind {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return KindInvalid
	}
	switch c := raw[0]; {
	case c == '"':
		return KindString
	case c == '{':
		return KindObject
	case c == '[':
		return KindArray
	case c == 'n':
		return KindNull
	case c == 't' || c == 'f':
		return KindBool
	case c == '-' || (c >= '0' && c <= '9'):
		return KindNumber
	default:
		return KindInvalid
	}
}
