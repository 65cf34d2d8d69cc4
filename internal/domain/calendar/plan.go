package calendar

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed plan.yaml
var planYAML []byte

// WeeksPerMonth is how many hub items the annual plan schedules each month.
const WeeksPerMonth = 4

// SeasonPlan is the marketing theme for one season.
type SeasonPlan struct {
	Theme string `yaml:"theme" json:"theme"`
	Focus string `yaml:"focus" json:"focus"`
}

// Campaign is a recurring marketing campaign from the annual plan.
type Campaign struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Stage    string   `yaml:"stage" json:"stage"`
	Hook     string   `yaml:"hook" json:"hook"`
	CTA      string   `yaml:"cta" json:"cta"`
	Channels []string `yaml:"channels" json:"channels"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// MonthPlan lists the campaigns and themes scheduled for a month.
type MonthPlan struct {
	Campaigns []string `yaml:"campaigns" json:"campaigns"`
	Themes    []string `yaml:"themes" json:"themes"`
	Channels  []string `yaml:"channels" json:"channels"`
}

// Plan is the static annual marketing calendar.
type Plan struct {
	Seasons   map[string]SeasonPlan `yaml:"seasons" json:"seasons"`
	Campaigns []Campaign            `yaml:"campaigns" json:"campaigns"`
	Months    map[int]MonthPlan     `yaml:"months" json:"months"`
}

// LoadPlan parses the embedded annual plan.
// POST: every month campaign reference resolves to a known campaign
func LoadPlan() (*Plan, error) {
	return ParsePlan(planYAML)
}

// ParsePlan parses an annual plan document.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse annual plan: %w", err)
	}
	for m, mp := range p.Months {
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("annual plan: month %d out of range", m)
		}
		for _, id := range mp.Campaigns {
			if _, ok := p.Campaign(id); !ok {
				return nil, fmt.Errorf("annual plan: month %d references unknown campaign %q", m, id)
			}
		}
	}
	return &p, nil
}

// Campaign looks up a campaign by ID.
func (p *Plan) Campaign(id string) (Campaign, bool) {
	for _, c := range p.Campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return Campaign{}, false
}

// Expand turns the plan into planned hub items for year: WeeksPerMonth items
// per month, each dated on that week's Tuesday. Campaign months rotate their
// campaigns across the weeks; other months rotate their themes.
// POST: items are ordered by month then week and carry no ID
func (p *Plan) Expand(year int) []Item {
	var out []Item
	for m := 1; m <= 12; m++ {
		mp := p.Months[m]
		season := SeasonForMonth(time.Month(m))
		for w := 1; w <= WeeksPerMonth; w++ {
			item := Item{
				Year:        year,
				Month:       m,
				Week:        w,
				ContentDate: NthWeekday(year, time.Month(m), time.Tuesday, w).Format("2006-01-02"),
				Season:      season,
				ContentType: TypeBlog,
				Status:      StatusPlanned,
				Priority:    3,
			}
			if len(mp.Themes) > 0 {
				item.Theme = mp.Themes[(w-1)%len(mp.Themes)]
			} else {
				item.Theme = p.Seasons[season].Theme
			}

			if len(mp.Campaigns) > 0 {
				c, _ := p.Campaign(mp.Campaigns[(w-1)%len(mp.Campaigns)])
				item.CampaignID = c.ID
				item.Title = fmt.Sprintf("%s (%d주차)", c.Name, w)
				item.Content = c.Hook + "\n\n" + c.CTA
				item.Keywords = append([]string(nil), c.Keywords...)
				item.Priority = 2
			} else {
				item.Title = fmt.Sprintf("%d월 %s", m, item.Theme)
				item.Keywords = []string{item.Theme}
			}
			item.Hashtags = Hashtags(item.Keywords)
			out = append(out, item)
		}
	}
	return out
}

// NthWeekday returns the n-th occurrence (1-based) of wd in the month.
func NthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+(n-1)*7)
}

// Hashtags turns keywords into "#keyword" tags with spaces removed.
func Hashtags(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ReplaceAll(strings.TrimSpace(k), " ", "")
		if k == "" {
			continue
		}
		out = append(out, "#"+k)
	}
	return out
}
