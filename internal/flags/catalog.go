package flags

// Rollout phases. Flags are flipped a phase at a time as the CarePlus
// redesign ships.
const (
	PhaseInfra        = 0
	PhaseDesignSystem = 1
	PhaseChat         = 2
	PhaseContent      = 3
	PhaseRecords      = 4
	PhasePolish       = 5
)

// Flag describes a known feature flag: its key as used by the apps, its
// compiled-in default, and the rollout phase it belongs to.
type Flag struct {
	Key         string
	Default     bool
	Description string
	Phase       int
}

// Known feature flags - add new flags here and to catalog below.
var (
	// Phase 0: infrastructure
	DesignTokens = Flag{
		Key:         "design_tokens",
		Default:     true,
		Description: "Serve the CarePlus design token palette",
		Phase:       PhaseInfra,
	}
	NewAppShell = Flag{
		Key:         "new_app_shell",
		Default:     true,
		Description: "New application shell and global navigation",
		Phase:       PhaseInfra,
	}
	OfflineCache = Flag{
		Key:         "offline_cache",
		Default:     false,
		Description: "Cache reference content for offline reading",
		Phase:       PhaseInfra,
	}

	// Phase 1: design system
	DSButtons = Flag{
		Key:         "ds_buttons",
		Default:     true,
		Description: "Design-system button components",
		Phase:       PhaseDesignSystem,
	}
	DSForms = Flag{
		Key:         "ds_forms",
		Default:     false,
		Description: "Design-system form inputs and validation",
		Phase:       PhaseDesignSystem,
	}
	DSCards = Flag{
		Key:         "ds_cards",
		Default:     false,
		Description: "Design-system card layouts",
		Phase:       PhaseDesignSystem,
	}
	DarkMode = Flag{
		Key:         "dark_mode",
		Default:     false,
		Description: "Dark color scheme",
		Phase:       PhaseDesignSystem,
	}

	// Phase 2: chat
	ChatPlusUI = Flag{
		Key:         "chat_plus_ui",
		Default:     false,
		Description: "Redesigned CarePlus chat interface",
		Phase:       PhaseChat,
	}
	ChatQuickReplies = Flag{
		Key:         "chat_quick_replies",
		Default:     false,
		Description: "Suggested quick replies in chat",
		Phase:       PhaseChat,
	}
	ChatSessionResume = Flag{
		Key:         "chat_session_resume",
		Default:     false,
		Description: "Resume the previous chat session on launch",
		Phase:       PhaseChat,
	}

	// Phase 3: community and diet content
	CommunityV2 = Flag{
		Key:         "community_v2",
		Default:     false,
		Description: "Redesigned community forum",
		Phase:       PhaseContent,
	}
	CommunityReactions = Flag{
		Key:         "community_reactions",
		Default:     false,
		Description: "Reactions on community posts",
		Phase:       PhaseContent,
	}
	DietTableV2 = Flag{
		Key:         "diet_table_v2",
		Default:     false,
		Description: "Redesigned diet and nutrition tables",
		Phase:       PhaseContent,
	}
	DietSearch = Flag{
		Key:         "diet_search",
		Default:     false,
		Description: "Search across nutrition reference tables",
		Phase:       PhaseContent,
	}
	SodiumTracker = Flag{
		Key:         "sodium_tracker",
		Default:     false,
		Description: "Daily sodium intake tracker",
		Phase:       PhaseContent,
	}

	// Phase 4: records, quiz, bookmarks
	HealthRecordsV2 = Flag{
		Key:         "health_records_v2",
		Default:     false,
		Description: "Redesigned health record forms",
		Phase:       PhaseRecords,
	}
	QuizV2 = Flag{
		Key:         "quiz_v2",
		Default:     false,
		Description: "Redesigned kidney-health quizzes",
		Phase:       PhaseRecords,
	}
	BookmarksSync = Flag{
		Key:         "bookmarks_sync",
		Default:     false,
		Description: "Sync bookmarks across devices",
		Phase:       PhaseRecords,
	}
	MedReminders = Flag{
		Key:         "med_reminders",
		Default:     false,
		Description: "Medication reminder notifications",
		Phase:       PhaseRecords,
	}

	// Phase 5: polish
	OnboardingTour = Flag{
		Key:         "onboarding_tour",
		Default:     false,
		Description: "First-run onboarding tour",
		Phase:       PhasePolish,
	}
	MotionEffects = Flag{
		Key:         "motion_effects",
		Default:     false,
		Description: "Page transition animations",
		Phase:       PhasePolish,
	}
	BetaBanner = Flag{
		Key:         "beta_banner",
		Default:     true,
		Description: "Show the beta feedback banner",
		Phase:       PhasePolish,
	}
)

// catalog is the registry of all known flags, in rollout order. Resolution
// results preserve this order.
var catalog = []Flag{
	DesignTokens,
	NewAppShell,
	OfflineCache,
	DSButtons,
	DSForms,
	DSCards,
	DarkMode,
	ChatPlusUI,
	ChatQuickReplies,
	ChatSessionResume,
	CommunityV2,
	CommunityReactions,
	DietTableV2,
	DietSearch,
	SodiumTracker,
	HealthRecordsV2,
	QuizV2,
	BookmarksSync,
	MedReminders,
	OnboardingTour,
	MotionEffects,
	BetaBanner,
}

// flagsByKey provides O(1) catalog lookup.
var flagsByKey = buildKeyMap()

func buildKeyMap() map[string]Flag {
	m := make(map[string]Flag, len(catalog))
	for _, f := range catalog {
		m[f.Key] = f
	}
	return m
}

// IsKnownFlag returns true if the flag key is registered.
func IsKnownFlag(key string) bool {
	_, ok := flagsByKey[key]
	return ok
}

// Catalog returns all known flags in rollout order.
// Returns a copy to prevent mutation of internal state.
func Catalog() []Flag {
	out := make([]Flag, len(catalog))
	copy(out, catalog)
	return out
}
