package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/lagna/internal/divisional"
	"github.com/ppiankov/lagna/internal/model"
)

var (
	snapshotKeys = []string{"kind", "instant", "latitude", "longitude", "ayanamsa", "node_mode", "houses", "positions"}
	ayanamsaKeys = []string{"name", "value"}
	houseKeys    = []string{"system", "ascendant", "midheaven", "cusps"}
	positionKeys = []string{"body", "longitude", "latitude", "speed", "retrograde", "sign", "degree", "house"}
)

// DecodeSnapshot parses a ChartSnapshot strictly: unknown fields, missing
// fields and internally inconsistent values are all rejected
func DecodeSnapshot(data []byte) (model.ChartSnapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.ChartSnapshot{}, model.NewValidationError("snapshot", "", err.Error())
	}
	if err := requireKeys(raw, "", snapshotKeys); err != nil {
		return model.ChartSnapshot{}, err
	}
	if err := requireObject(raw["ayanamsa"], "ayanamsa", ayanamsaKeys); err != nil {
		return model.ChartSnapshot{}, err
	}
	if err := requireObject(raw["houses"], "houses", houseKeys); err != nil {
		return model.ChartSnapshot{}, err
	}

	var positions []map[string]json.RawMessage
	if err := json.Unmarshal(raw["positions"], &positions); err != nil {
		return model.ChartSnapshot{}, model.NewValidationError("positions", "", err.Error())
	}
	for i, p := range positions {
		if err := requireKeys(p, fmt.Sprintf("positions[%d].", i), positionKeys); err != nil {
			return model.ChartSnapshot{}, err
		}
	}

	var snap model.ChartSnapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return model.ChartSnapshot{}, model.NewValidationError("snapshot", "", err.Error())
	}
	if err := checkSnapshot(snap); err != nil {
		return model.ChartSnapshot{}, err
	}
	return snap, nil
}

func requireObject(data json.RawMessage, prefix string, keys []string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return model.NewValidationError(prefix, "", "expected an object")
	}
	return requireKeys(obj, prefix+".", keys)
}

func requireKeys(obj map[string]json.RawMessage, prefix string, keys []string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			missing = append(missing, prefix+k)
		}
	}
	if len(missing) > 0 {
		return model.NewValidationError(missing[0], "", "required field missing (all missing: "+strings.Join(missing, ", ")+")")
	}
	return nil
}

// checkSnapshot verifies derived fields agree with the longitudes they derive from
func checkSnapshot(s model.ChartSnapshot) error {
	if err := Coordinates(s.Latitude, s.Longitude); err != nil {
		return err
	}
	if _, err := divisional.ParseKind(string(s.Kind)); err != nil {
		return model.NewValidationError("kind", string(s.Kind), err.Error())
	}
	if _, err := model.ParseHouseSystem(string(s.Houses.System)); err != nil {
		return err
	}
	if _, err := model.ParseNodeMode(string(s.NodeMode)); err != nil {
		return err
	}
	if err := s.Houses.Validate(); err != nil {
		return model.NewValidationError("houses.cusps", "", err.Error())
	}
	if len(s.Positions) == 0 {
		return model.NewValidationError("positions", "", "at least one position is required")
	}

	seen := make(map[model.Body]bool, len(s.Positions))
	for i, p := range s.Positions {
		field := fmt.Sprintf("positions[%d]", i)
		if seen[p.Body] {
			return model.NewValidationError(field+".body", string(p.Body), "duplicate body")
		}
		seen[p.Body] = true
		if p.Longitude < 0 || p.Longitude >= 360 {
			return model.NewValidationError(field+".longitude", fmt.Sprint(p.Longitude), "must be within [0, 360)")
		}
		if p.Sign != model.SignOf(p.Longitude) {
			return model.NewValidationError(field+".sign", p.Sign.String(), "does not match longitude")
		}
		if p.House < 1 || p.House > 12 {
			return model.NewValidationError(field+".house", fmt.Sprint(p.House), "must be within [1, 12]")
		}
		if p.Retrograde != (p.Speed < 0) {
			return model.NewValidationError(field+".retrograde", fmt.Sprint(p.Retrograde), "does not match speed")
		}
	}
	return nil
}
