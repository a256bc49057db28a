package catalog

import (
	model "github.com/okian/tally/internal/domain/model"
)

// Defaults returns the built-in games. IDs are assigned by the store.
func Defaults() []model.Game {
	return []model.Game{
		{Name: "Poker", Description: "Texas Hold'em poker scoring", MinPlayers: 2, MaxPlayers: 10, HighestWins: true},
		{Name: "UNO", Description: "Classic UNO card game", MinPlayers: 2, MaxPlayers: 10, HighestWins: false},
		{Name: "Scrabble", Description: "Word building board game", MinPlayers: 2, MaxPlayers: 4, HighestWins: true},
		{Name: "Yahtzee", Description: "Dice rolling and scoring game", MinPlayers: 1, MaxPlayers: 8, HighestWins: true},
		{Name: "Hearts", Description: "Classic Hearts card game", MinPlayers: 3, MaxPlayers: 4, HighestWins: false},
		{Name: "Rummy", Description: "Card matching and set collection", MinPlayers: 2, MaxPlayers: 6, HighestWins: true},
		{Name: "Bowling", Description: "Ten-pin bowling scoring", MinPlayers: 1, MaxPlayers: 8, HighestWins: true},
		{Name: "Darts", Description: "Classic darts scoring", MinPlayers: 1, MaxPlayers: 8, HighestWins: true},
		{Name: "Bridge", Description: "Contract bridge scoring", MinPlayers: 4, MaxPlayers: 4, HighestWins: true},
		{Name: "Golf", Description: "Golf card game scoring", MinPlayers: 2, MaxPlayers: 8, HighestWins: false},
	}
}

func defaultRules() map[string]Rules {
	return map[string]Rules{
		"poker": {
			Name:         "Poker",
			Description:  "Texas Hold'em poker scoring",
			ScoringInfo:  "Players accumulate chips through betting and winning hands",
			WinCondition: "Player with the most chips at the end wins",
		},
		"uno": {
			Name:         "UNO",
			Description:  "Classic UNO card game",
			ScoringInfo:  "Number cards = face value, Action cards = 20 points, Wild cards = 50 points",
			WinCondition: "Player with the lowest total points wins",
		},
	}
}

func defaultResources() map[string]Resources {
	return map[string]Resources{
		"darts": {
			Wikihow: "https://www.wikihow.com/Play-Darts",
			Youtube: []string{
				"https://www.youtube.com/watch?v=yooXCn8vX_U",
				"https://www.youtube.com/watch?v=p1yJOkPmRhk",
			},
			AdditionalResources: []Link{
				{Title: "Official Darts Rules", URL: "https://www.dartboard.com/pages/darts-rules", Description: "Complete guide to dart scoring and rules"},
				{Title: "Darts Scoring Guide", URL: "https://www.darting.com/Darts-Rules/", Description: "Learn how to keep score in darts"},
			},
		},
		"carrom": {
			Wikihow: "https://www.wikihow.com/Play-Carrom",
			Youtube: []string{
				"https://www.youtube.com/watch?v=LhFrJxI6Umo",
				"https://www.youtube.com/watch?v=vEtQHLDAfNg",
			},
			AdditionalResources: []Link{
				{Title: "Official Carrom Rules", URL: "https://www.icf.org.in/rules-regulations", Description: "International Carrom Federation official rules"},
				{Title: "Carrom Techniques", URL: "https://www.carrom.org/techniques", Description: "Advanced techniques and strategies"},
			},
		},
		"uno": {
			Wikihow: "https://www.wikihow.com/Play-UNO",
			Youtube: []string{
				"https://www.youtube.com/watch?v=sWoSZmHcwvY",
				"https://www.youtube.com/watch?v=DD0eXEXRDMs",
			},
			AdditionalResources: []Link{
				{Title: "Official UNO Rules", URL: "https://www.mattel.com/en-us/uno", Description: "Official rules from Mattel"},
			},
		},
		"yahtzee": {
			Wikihow: "https://www.wikihow.com/Play-Yahtzee",
			Youtube: []string{
				"https://www.youtube.com/watch?v=AYehM4mLu_k",
				"https://www.youtube.com/watch?v=H4DV-tQh_G8",
			},
			AdditionalResources: []Link{
				{Title: "Yahtzee Strategy Guide", URL: "https://www.ultraboardgames.com/yahtzee/strategy.php", Description: "Tips and strategies for maximizing your score"},
			},
		},
		"hearts": {
			Wikihow: "https://www.wikihow.com/Play-Hearts",
			Youtube: []string{
				"https://www.youtube.com/watch?v=KDX0BZUv0WY",
				"https://www.youtube.com/watch?v=RN7ZFXZgsYE",
			},
			AdditionalResources: []Link{
				{Title: "Hearts Strategy", URL: "https://www.pagat.com/reverse/hearts.html", Description: "Detailed rules and strategy guide"},
			},
		},
		"rummy": {
			Wikihow: "https://www.wikihow.com/Play-Rummy",
			Youtube: []string{
				"https://www.youtube.com/watch?v=CpMa7VLerYU",
				"https://www.youtube.com/watch?v=0u8heErDg9U",
			},
			AdditionalResources: []Link{
				{Title: "Rummy Rules", URL: "https://bicyclecards.com/how-to-play/rummy-rum/", Description: "Official Bicycle Cards rummy rules"},
			},
		},
	}
}
