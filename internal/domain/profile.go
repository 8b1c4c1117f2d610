package domain

import "time"

// UserProfile es la fila persistente por identidad autenticada.
// Subject es el identificador del proveedor de identidad externo y es
// inmutable después del signup.
type UserProfile struct {
	ID                 string         `json:"id"`
	Subject            string         `json:"-"`
	Name               string         `json:"name"`
	Occupation         string         `json:"occupation"`
	Timezone           string         `json:"timezone"`
	Age                int            `json:"age"`
	Username           *string        `json:"username"`
	Bio                *string        `json:"bio"`
	AvatarURL          *string        `json:"avatarUrl"`
	Location           *string        `json:"location"`
	WalletAddress      *string        `json:"walletAddress"`
	Interests          []string       `json:"interests"`
	PreferredLanguages []string       `json:"preferredLanguages"`
	SkillsOffered      []string       `json:"skillsOffered"`
	LearningGoals      []string       `json:"learningGoals"`
	UserIntent         []string       `json:"userIntent"`
	UserAvailability   []string       `json:"userAvailability"`
	SocialLinks        map[string]any `json:"socialLinks"`
	Onboarded          bool           `json:"hasOnboarded"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// OnboardingUpdate es el registro ya normalizado que se escribe una única
// vez sobre el perfil; Onboarded siempre se fuerza a true al persistir.
type OnboardingUpdate struct {
	Name               string
	Occupation         string
	Timezone           string
	Age                int
	Username           *string
	Bio                *string
	AvatarURL          *string
	Location           *string
	WalletAddress      *string
	Interests          []string
	PreferredLanguages []string
	SkillsOffered      []string
	LearningGoals      []string
	UserIntent         []string
	UserAvailability   []string
	SocialLinks        map[string]any
}
