package repository

import (
	"context"
	"time"

	"github.com/prohmpiriya/decaying-tickets/internal/domain"
)

const day = 24 * time.Hour

// DemoArtists is the demo line-up used by the in-memory backend
func DemoArtists() []*domain.Artist {
	return []*domain.Artist{
		{
			ID:          "1",
			Name:        "Aetheria",
			Genre:       "Synth Pop / Ambient",
			Description: "Ethereal soundscapes and stadium-sized synth productions.",
			Image:       "https://picsum.photos/seed/aetheria/800/600",
			CharityCauses: []domain.CharityCause{
				{ID: "c1", Name: "Global Reforestation", Description: "Planting native trees in damaged ecosystems.", Icon: "🌳"},
				{ID: "c2", Name: "Clean Water Initiative", Description: "Providing clean drinking water to remote villages.", Icon: "💧"},
			},
		},
		{
			ID:          "2",
			Name:        "Midnight Echo",
			Genre:       "Indie Rock",
			Description: "Raw, socially conscious rock from the underground.",
			Image:       "https://picsum.photos/seed/echo/800/600",
			CharityCauses: []domain.CharityCause{
				{ID: "c3", Name: "Youth Music Education", Description: "Funding instruments for inner-city schools.", Icon: "🎸"},
				{ID: "c4", Name: "Ocean Cleanup", Description: "Removing plastic from the Great Pacific Garbage Patch.", Icon: "🌊"},
			},
		},
		{
			ID:          "3",
			Name:        "Solaris V",
			Genre:       "Neo-Jazz / Funk",
			Description: "A futuristic collective blending brass with bass.",
			Image:       "https://picsum.photos/seed/solaris/800/600",
			CharityCauses: []domain.CharityCause{
				{ID: "c5", Name: "Renewable Energy Lab", Description: "Researching decentralized solar power.", Icon: "☀️"},
			},
		},
	}
}

// DemoArenas is the demo venue list used by the in-memory backend
func DemoArenas() []*domain.Arena {
	return []*domain.Arena{
		{
			ID:       "a1",
			Name:     "Prism Sphere",
			City:     "Los Angeles",
			Capacity: 20000,
			Sections: []domain.ArenaSection{
				{ID: "s1", ArenaID: "a1", Name: "Platinum Pit", BasePrice: 250, TotalSeats: 200, AvailableSeats: 145},
				{ID: "s2", ArenaID: "a1", Name: "Main Tier", BasePrice: 150, TotalSeats: 5000, AvailableSeats: 3200},
				{ID: "s3", ArenaID: "a1", Name: "Upper Bowl", BasePrice: 85, TotalSeats: 14800, AvailableSeats: 12000},
			},
		},
		{
			ID:       "a2",
			Name:     "Nova Stadium",
			City:     "London",
			Capacity: 60000,
			Sections: []domain.ArenaSection{
				{ID: "s4", ArenaID: "a2", Name: "Standing Floor", BasePrice: 120, TotalSeats: 15000, AvailableSeats: 8000},
				{ID: "s5", ArenaID: "a2", Name: "Grandstands", BasePrice: 95, TotalSeats: 45000, AvailableSeats: 35000},
			},
		},
	}
}

// DemoConcerts schedules the demo concerts relative to now. Both went on
// sale ten days ago.
func DemoConcerts(now time.Time) []*domain.Concert {
	launch := now.Add(-10 * day)
	return []*domain.Concert{
		{
			ID:            "ev1",
			ArtistID:      "1",
			ArenaID:       "a1",
			Date:          now.Add(45 * day),
			LaunchDate:    launch,
			FloorDate:     now.Add(40 * day),
			MaxMultiplier: 100,
			CreatedAt:     launch,
		},
		{
			ID:            "ev2",
			ArtistID:      "2",
			ArenaID:       "a2",
			Date:          now.Add(60 * day),
			LaunchDate:    launch,
			FloorDate:     now.Add(55 * day),
			MaxMultiplier: 50,
			CreatedAt:     launch,
		},
	}
}

// SeedDemoCatalog loads the demo artists, arenas and concerts
func SeedDemoCatalog(ctx context.Context, catalog *MemoryCatalogRepository, concerts ConcertRepository, now time.Time) error {
	for _, a := range DemoArtists() {
		catalog.PutArtist(a)
	}
	for _, a := range DemoArenas() {
		catalog.PutArena(a)
	}
	for _, c := range DemoConcerts(now) {
		if err := concerts.Create(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
