package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// IsoMillis matches the ISO strings devices and dashboards already consume.
const IsoMillis = "2006-01-02T15:04:05.000Z"

// JsonTime is a UTC timestamp that marshals as IsoMillis. The zero value is stored
// as NULL and marshals as null.
type JsonTime struct {
	time.Time
}

func NewJsonTime(t time.Time) JsonTime {
	return JsonTime{Time: t.UTC()}
}

func (jt JsonTime) String() string {
	if jt.IsZero() {
		return ""
	}
	return jt.Time.UTC().Format(IsoMillis)
}

func (jt JsonTime) MarshalJSON() ([]byte, error) {
	if jt.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + jt.String() + `"`), nil
}

func (jt *JsonTime) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*jt = JsonTime{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("can not convert %s to time", s)
	}
	t, err := time.Parse(time.RFC3339Nano, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("can not convert %s to time", s)
	}
	*jt = NewJsonTime(t)
	return nil
}

func (jt JsonTime) Value() (driver.Value, error) {
	if jt.IsZero() {
		return nil, nil
	}
	return jt.Time.UTC(), nil
}

func (jt *JsonTime) Scan(v interface{}) error {
	switch value := v.(type) {
	case nil:
		*jt = JsonTime{}
		return nil
	case time.Time:
		*jt = NewJsonTime(value)
		return nil
	}
	return fmt.Errorf("can not convert %v to time", v)
}
