package catalog

import "github.com/tbxark/homi/types"

const GeneralService = "General Service"

// Default returns the marketplace category table.
func Default() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				Name:     "Trash Removal",
				Keywords: []string{"trash", "garbage"},
				Specific: &Specific{
					Prompt: Prompt{
						Question:    "What kind of items need to be removed?",
						Suggestions: []string{"Furniture", "Appliances", "Yard waste", "General junk"},
					},
					Keywords: []string{"furniture", "appliance", "yard", "junk", "debris"},
				},
			},
			{
				Name:     "Photography",
				Keywords: []string{"photo", "photographer"},
				Specific: &Specific{
					Prompt: Prompt{
						Question:    "What type of photography session?",
						Suggestions: []string{"Portrait session", "Event coverage", "Product photos", "Real estate"},
					},
					Keywords: []string{"portrait", "event", "wedding", "product", "headshot", "real estate"},
				},
			},
			{
				Name:     "Cleaning",
				Keywords: []string{"clean"},
				Specific: &Specific{
					Prompt: Prompt{
						Question:    "What type of cleaning do you need?",
						Suggestions: []string{"Regular cleaning", "Deep cleaning", "Move-out cleaning"},
					},
					Keywords: []string{"deep", "regular", "move-out"},
				},
			},
			{Name: "Tech Support", Keywords: []string{"wifi", "internet", "tech"}},
			{Name: "Graphic Design", Keywords: []string{"design", "logo", "graphic"}},
			{Name: "Moving Services", Keywords: []string{"move", "moving"}},
			{Name: "Repair Services", Keywords: []string{"repair", "fix"}},
		},
		DefaultCategory: GeneralService,
		Fields: map[types.Field]Prompt{
			types.FieldLocation: {
				Question:    "Where are you located?",
				Suggestions: []string{"Brooklyn, NY", "Manhattan, NY", "Queens, NY", "Jersey City, NJ"},
			},
			types.FieldBudget: {
				Question:    "What's your budget for this?",
				Suggestions: []string{"$50-100", "$100-200", "$200-500", "$500+"},
			},
			types.FieldTimeline: {
				Question:    "When do you need this done?",
				Suggestions: []string{"Today", "Tomorrow", "This weekend", "Next week"},
			},
		},
		QuickStarters: []string{
			"I need help with trash removal in Brooklyn, NY",
			"Looking for a photographer for a birthday party",
			"I need a deep clean of my apartment this weekend",
			"My wifi keeps dropping, need tech support",
		},
		DisplayNames: map[types.Field]string{
			types.FieldLocation: "Location",
			types.FieldBudget:   "Budget",
			types.FieldTimeline: "Timeline",
			types.FieldSpecific: "Details",
		},
	}
}
