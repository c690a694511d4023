package service

import (
    "encoding/json"
    "fmt"
    "strconv"
    "strings"
)

// ID is an optional record id decoded from a JSON number, a numeric
// string, an empty string or null.  Zero means none was chosen.
type ID uint64

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
    s, err := looseScalar(b)
    if err != nil {
        return err
    }
    if s == "" {
        *id = 0
        return nil
    }
    n, err := strconv.ParseUint(s, 10, 64)
    if err != nil {
        return fmt.Errorf("invalid id %q", s)
    }
    *id = ID(n)
    return nil
}

// Amount is an optional money value decoded from a JSON number, a numeric
// string, an empty string or null.
type Amount struct {
    Value float64
    Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(b []byte) error {
    s, err := looseScalar(b)
    if err != nil {
        return err
    }
    if s == "" {
        *a = Amount{}
        return nil
    }
    v, err := strconv.ParseFloat(s, 64)
    if err != nil {
        return fmt.Errorf("invalid amount %q", s)
    }
    *a = Amount{Value: v, Set: true}
    return nil
}

// PartSelection is one row of a parts picker.  PartID 0 is an empty
// selection and is skipped by the workflows.
type PartSelection struct {
    PartID   uint64 `json:"part_id"`
    Quantity int    `json:"quantity"`
}

// UnmarshalJSON accepts ids and quantities as numbers or strings, with ""
// meaning no selection.
func (p *PartSelection) UnmarshalJSON(b []byte) error {
    var raw struct {
        PartID   json.RawMessage `json:"part_id"`
        Quantity json.RawMessage `json:"quantity"`
    }
    if err := json.Unmarshal(b, &raw); err != nil {
        return err
    }
    *p = PartSelection{}
    id, err := looseScalar(raw.PartID)
    if err != nil {
        return err
    }
    if id != "" {
        if p.PartID, err = strconv.ParseUint(id, 10, 64); err != nil {
            return fmt.Errorf("invalid part_id %q", id)
        }
    }
    qty, err := looseScalar(raw.Quantity)
    if err != nil {
        return err
    }
    if qty != "" {
        f, err := strconv.ParseFloat(qty, 64)
        if err != nil {
            return fmt.Errorf("invalid quantity %q", qty)
        }
        p.Quantity = int(f)
    }
    return nil
}

// quantity is the stored quantity.  Quantities below one are stored as one.
func (p PartSelection) quantity() int {
    if p.Quantity < 1 {
        return 1
    }
    return p.Quantity
}

// looseScalar returns a JSON number or string as trimmed text; null and
// absent values yield "".
func looseScalar(b []byte) (string, error) {
    s := strings.TrimSpace(string(b))
    if s == "" || s == "null" {
        return "", nil
    }
    if strings.HasPrefix(s, `"`) {
        var str string
        if err := json.Unmarshal(b, &str); err != nil {
            return "", err
        }
        return strings.TrimSpace(str), nil
    }
    return s, nil
}
