package services

import (
	"math/rand"

	"emberfree_go_backend/internal/models"
)

// FallbackService produces zero-cost motivational content and missions
// from static catalogs. It is the availability guarantee of the AI layer:
// every path that skips or loses the upstream call lands here, and no
// method can fail.
type FallbackService struct{}

func NewFallbackService() *FallbackService {
	return &FallbackService{}
}

type messageTier int

const (
	tierNewUser messageTier = iota
	tierStreakRecovery
	tierEarlyJourney
	tierMilestone
	tierVeteran
)

var motivationPools = map[string]map[messageTier][]string{
	"en": {
		tierNewUser: {
			"Day one is the hardest day, and you are already living it. Every craving you outlast makes the next one weaker.",
			"You made the decision thousands never make. Breathe deep, drink water, and take today one hour at a time.",
			"The first days rewire everything. Your body is already thanking you, even if it doesn't feel like it yet.",
		},
		tierStreakRecovery: {
			"A slip is a data point, not a defeat. You quit once, which means you know exactly how to do it again.",
			"Every long streak in history contains a restart. What matters is that you are here, starting now.",
			"You didn't lose the days you stayed smoke-free. They are still yours. Pick the streak back up today.",
		},
		tierEarlyJourney: {
			"Your sense of taste and smell are coming back online. Notice one thing today that smells better than it used to.",
			"Cravings peak and pass in about three minutes. You have already outlasted dozens. Keep counting wins.",
			"Two weeks of freedom changes your lungs measurably. You are past the worst of the physical pull.",
		},
		tierMilestone: {
			"That milestone you just passed? Most people never see it. Take a second to feel how far you've come.",
			"Look at that streak. This is not luck, it's you making the same good choice again and again.",
			"Another milestone down. Your future self is already breathing easier because of today's version of you.",
		},
		tierVeteran: {
			"You're not quitting anymore. You're a non-smoker who is simply living their life. That identity is yours now.",
			"Months of freedom, money saved, lungs healing. You are proof that this can be done.",
			"At this point the habit that defines you is the streak itself. Protect it like you built it: one day at a time.",
		},
	},
	"es": {
		tierNewUser: {
			"El primer día es el más difícil, y ya lo estás viviendo. Cada antojo que superas debilita al siguiente.",
			"Tomaste la decisión que miles nunca toman. Respira hondo, bebe agua y ve hoy hora por hora.",
		},
		tierStreakRecovery: {
			"Una recaída es un dato, no una derrota. Ya lo dejaste una vez, así que sabes exactamente cómo hacerlo de nuevo.",
			"Toda gran racha incluye un reinicio. Lo que importa es que estás aquí, empezando ahora.",
		},
		tierEarlyJourney: {
			"Tu gusto y tu olfato están volviendo. Nota hoy una cosa que huela mejor que antes.",
			"Los antojos pasan en unos tres minutos. Ya has superado docenas. Sigue sumando victorias.",
		},
		tierMilestone: {
			"Ese hito que acabas de pasar, la mayoría nunca lo ve. Tómate un segundo para sentir lo lejos que has llegado.",
			"Mira esa racha. No es suerte: eres tú tomando la misma buena decisión una y otra vez.",
		},
		tierVeteran: {
			"Ya no estás dejando de fumar. Eres una persona no fumadora viviendo su vida. Esa identidad ahora es tuya.",
			"Meses de libertad, dinero ahorrado, pulmones sanando. Eres la prueba de que se puede.",
		},
	},
}

var streakMilestones = []int{7, 30, 90, 180, 365}

func classifyProgress(p models.UserProgress) messageTier {
	switch {
	case p.TotalDays < 3:
		return tierNewUser
	case p.Streak == 0:
		return tierStreakRecovery
	case atMilestone(p.Streak):
		return tierMilestone
	case p.TotalDays < 14:
		return tierEarlyJourney
	case p.Streak >= 60 || p.TotalDays >= 90:
		return tierVeteran
	default:
		return tierEarlyJourney
	}
}

func atMilestone(streak int) bool {
	for _, m := range streakMilestones {
		if streak == m {
			return true
		}
	}
	return false
}

// ContextualMotivation picks a message matching the user's journey stage.
// No network, no cost, never fails.
func (s *FallbackService) ContextualMotivation(progress models.UserProgress, language string) string {
	pools, ok := motivationPools[language]
	if !ok {
		pools = motivationPools["en"]
	}
	pool := pools[classifyProgress(progress)]
	if len(pool) == 0 {
		pool = motivationPools["en"][tierEarlyJourney]
	}
	return pool[rand.Intn(len(pool))]
}

var missionCatalog = map[string][]models.Mission{
	"en": {
		{Title: "Hydration hero", Description: "Drink a glass of water every time a craving hits today.", XPReward: 20, Difficulty: "easy"},
		{Title: "Fresh air break", Description: "Take a ten minute walk outside instead of a smoke break.", XPReward: 25, Difficulty: "easy"},
		{Title: "Trigger journal", Description: "Write down three situations that made you want to smoke today.", XPReward: 30, Difficulty: "medium"},
		{Title: "Money jar", Description: "Move the price of a pack into your savings and watch it grow.", XPReward: 20, Difficulty: "easy"},
		{Title: "Deep breathing", Description: "Do five rounds of slow 4-7-8 breathing when stress spikes.", XPReward: 25, Difficulty: "easy"},
		{Title: "Tell a friend", Description: "Share your current streak with someone who supports you.", XPReward: 30, Difficulty: "medium"},
		{Title: "Swap the ritual", Description: "Replace your usual after-meal cigarette with a cup of tea.", XPReward: 35, Difficulty: "medium"},
		{Title: "Declutter", Description: "Remove one smoking reminder (lighter, ashtray) from your space.", XPReward: 40, Difficulty: "hard"},
	},
	"es": {
		{Title: "Héroe de hidratación", Description: "Bebe un vaso de agua cada vez que llegue un antojo hoy.", XPReward: 20, Difficulty: "easy"},
		{Title: "Pausa de aire fresco", Description: "Camina diez minutos al aire libre en lugar de fumar.", XPReward: 25, Difficulty: "easy"},
		{Title: "Diario de disparadores", Description: "Anota tres situaciones que te dieron ganas de fumar hoy.", XPReward: 30, Difficulty: "medium"},
		{Title: "Frasco de ahorro", Description: "Guarda el precio de una cajetilla en tus ahorros y míralo crecer.", XPReward: 20, Difficulty: "easy"},
		{Title: "Respiración profunda", Description: "Haz cinco rondas de respiración lenta 4-7-8 cuando suba el estrés.", XPReward: 25, Difficulty: "easy"},
		{Title: "Cuéntale a un amigo", Description: "Comparte tu racha actual con alguien que te apoye.", XPReward: 30, Difficulty: "medium"},
	},
}

// StaticMissions returns count missions from the fixed catalog, shuffled
// so repeat callers see variety.
func (s *FallbackService) StaticMissions(count int, language string) []models.Mission {
	catalog, ok := missionCatalog[language]
	if !ok {
		catalog = missionCatalog["en"]
	}
	picked := make([]models.Mission, len(catalog))
	copy(picked, catalog)
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if count > len(picked) {
		count = len(picked)
	}
	return picked[:count]
}
