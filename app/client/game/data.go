package game

import (
	"os"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Character struct {
	ID          int               `yaml:"id"`
	FullName    string            `yaml:"full_name"`
	ShortName   string            `yaml:"short_name"`
	Personality string            `yaml:"personality"`
	Attributes  map[string]string `yaml:"attributes"`
}

// Data is the game state exported for the current conversation.
type Data struct {
	PlayerID   int         `yaml:"player_id"`
	PlayerName string      `yaml:"player_name"`
	AIID       int         `yaml:"ai_id"`
	AIName     string      `yaml:"ai_name"`
	Date       string      `yaml:"date"`
	Scene      string      `yaml:"scene"`
	Location   string      `yaml:"location"`
	Characters []Character `yaml:"characters"`
}

func LoadData(path string) (*Data, error) {
	errb := oops.In("game").With("path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errb.Wrapf(err, "failed to read game data")
	}

	var data Data
	if err = yaml.Unmarshal(raw, &data); err != nil {
		return nil, errb.Wrapf(err, "failed to parse game data")
	}

	if _, ok := data.Character(data.PlayerID); !ok {
		return nil, errb.Errorf("player %d is not among the characters", data.PlayerID)
	}
	if _, ok := data.Character(data.AIID); !ok {
		return nil, errb.Errorf("counterpart %d is not among the characters", data.AIID)
	}

	return &data, nil
}

func (d *Data) Character(id int) (Character, bool) {
	for _, c := range d.Characters {
		if c.ID == id {
			return c, true
		}
	}

	return Character{}, false
}

func (d *Data) Player() Character {
	c, _ := d.Character(d.PlayerID)
	return c
}

// AI returns the primary counterpart.
func (d *Data) AI() Character {
	c, _ := d.Character(d.AIID)
	return c
}
