package config

import "github.com/nao1215/deepcrawl/internal/model"

// Built-in topic names.
const (
	// PresetArchitectureTheory studies the atomic vertical slice hybrid
	// architecture theory.
	PresetArchitectureTheory = "architecture-theory"

	// PresetArchitectureGaps targets the gaps left by the theory study:
	// vertical slicing, implementation guidance, tooling and case studies.
	PresetArchitectureGaps = "architecture-gaps"
)

// Presets returns the built-in research topics.
// A fresh copy is returned on every call.
func Presets() []Topic {
	return []Topic{architectureTheory(), architectureGaps()}
}

// BuiltinFile returns a research file holding only the presets.
func BuiltinFile() *File {
	return &File{Topics: Presets()}
}

func architectureTheory() Topic {
	return Topic{
		Name:        PresetArchitectureTheory,
		Description: "Atomic Vertical Slice Hybrid Architecture: is the theory architecturally sound and feasible?",
		Seeds: []string{
			"https://martinfowler.com",
			"https://patterns.dev",
		},
		Keywords: []string{
			"atomic vertical slice hybrid architecture",
			"atomic architecture patterns",
			"vertical slice architecture",
			"hybrid architecture",
			"atomic components",
			"vertical slicing",
			"hybrid deployment",
		},
		URLPatterns: []string{
			"*architecture*", "*pattern*", "*design*", "*guide*",
			"*docs*", "*documentation*", "*best-practices*",
		},
		ContentTypes:       []string{"text/html"},
		Depth:              2,
		MaxPages:           30,
		SnippetWidth:       100,
		RelevanceThreshold: ptr(0),
		Categories: []model.Category{
			{
				Name:             "atomic",
				Terms:            []string{"atomic", "independent components", "self-contained", "autonomous", "isolated units"},
				StrongThreshold:  3,
				PartialThreshold: 2,
				Affirmative:      "Atomic component patterns show promise - investigate further",
				GapMessage:       "Atomic component patterns lack evidence - define them from first principles",
			},
			{
				Name:             "vertical_slice",
				Terms:            []string{"vertical slice", "feature slice", "cross-cutting", "end-to-end", "full stack feature"},
				StrongThreshold:  3,
				PartialThreshold: 2,
				Affirmative:      "Vertical slice architecture has established precedents",
				GapMessage:       "Vertical slice precedents not found - broaden the crawl",
			},
			{
				Name:             "hybrid",
				Terms:            []string{"hybrid", "mixed approach", "combined", "flexible deployment", "adaptive architecture"},
				StrongThreshold:  2,
				PartialThreshold: 2,
				Affirmative:      "Hybrid approaches are documented in industry",
				GapMessage:       "Hybrid aspect needs more research - may be novel contribution",
			},
		},
	}
}

func architectureGaps() Topic {
	return Topic{
		Name:        PresetArchitectureGaps,
		Description: "Atomic Vertical Slice Hybrid Architecture: gap analysis for vertical slicing, implementation, tooling and case studies",
		Seeds: []string{
			"https://martinfowler.com",
			"https://www.dddcommunity.org",
			"https://microservices.io",
			"https://patterns.dev",
			"https://netflix.com/techblog",
			"https://engineering.grab.com",
			"https://blog.twitter.com/engineering",
			"https://engineering.linkedin.com",
			"https://www.infoq.com",
			"https://highscalability.com",
		},
		Keywords: []string{
			"vertical slice architecture",
			"feature slice architecture",
			"domain driven design vertical",
			"feature based architecture",
			"slice based deployment",
			"vertical decomposition",
			"atomic component implementation",
			"self contained systems",
			"autonomous services implementation",
			"hybrid deployment patterns",
			"modular monolith to microservices",
			"architecture transition patterns",
			"vertical slice tooling",
			"atomic component tools",
			"hybrid architecture tools",
			"architecture migration tools",
			"modular deployment tools",
			"architecture case study",
			"modular monolith case study",
			"microservices transition",
			"hybrid architecture example",
			"vertical slice example",
		},
		URLPatterns: []string{
			"*architecture*", "*pattern*", "*design*", "*case-study*",
			"*implementation*", "*migration*", "*transition*", "*example*",
			"*ddd*", "*domain-driven*", "*vertical*", "*slice*", "*hybrid*",
			"*modular*", "*monolith*", "*microservices*", "*tooling*",
		},
		ContentTypes:       []string{"text/html"},
		Depth:              3,
		MaxPages:           50,
		SnippetWidth:       150,
		RelevanceThreshold: ptr(1),
		Categories: []model.Category{
			{
				Name: "vertical_slice",
				Terms: []string{
					"vertical slice", "feature slice", "domain slice", "feature based",
					"slice architecture", "vertical decomposition", "feature oriented",
					"domain driven vertical", "slice by feature", "vertical organization",
				},
				PresenceThreshold: 2,
				StrongThreshold:   3,
				PartialThreshold:  2,
				Affirmative:       "Strong vertical slice evidence found - proceed with pattern definition",
				GapMessage:        "Limited vertical slice evidence - consider original research contribution",
			},
			{
				Name: "implementation",
				Terms: []string{
					"implementation pattern", "code example", "how to implement",
					"step by step", "practical guide", "tutorial", "walkthrough",
					"architecture implementation", "migration steps", "transition guide",
				},
				PresenceThreshold: 2,
				StrongThreshold:   3,
				PartialThreshold:  2,
				Affirmative:       "Implementation patterns identified - create practical guide",
				GapMessage:        "Implementation gap remains - develop proof-of-concept",
			},
			{
				Name: "tooling",
				Terms: []string{
					"tools", "framework", "library", "platform", "cli", "automation",
					"deployment tool", "architecture tool", "migration tool", "generator",
				},
				PresenceThreshold: 1,
				StrongThreshold:   2,
				PartialThreshold:  1,
				Affirmative:       "Tooling support found - evaluate existing solutions",
				GapMessage:        "Tooling gap identified - potential tool development opportunity",
			},
			{
				Name: "case_study",
				Terms: []string{
					"case study", "real world", "production", "at scale", "lessons learned",
					"experience report", "migration story", "transformation", "journey",
				},
				PresenceThreshold: 1,
				StrongThreshold:   2,
				PartialThreshold:  1,
				Affirmative:       "Real-world examples found - analyze for pattern validation",
				GapMessage:        "Case study gap - create exemplar implementation",
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
