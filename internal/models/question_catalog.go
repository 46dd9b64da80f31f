package models

func DefaultQuestionCatalog() []Question {
	return []Question{
		{Category: CategoryDaily, Difficulty: DifficultyEasy, Text: "What was the happiest moment of your day?"},
		{Category: CategoryDaily, Difficulty: DifficultyEasy, Text: "Which hobby or activity interests you most these days?"},
		{Category: CategoryDaily, Difficulty: DifficultyEasy, Text: "How do you relieve stress?"},
		{Category: CategoryDaily, Difficulty: DifficultyEasy, Text: "What is your favorite food and why?"},
		{Category: CategoryDaily, Difficulty: DifficultyEasy, Text: "What would you most like to do this weekend?"},
		{Category: CategoryDaily, Difficulty: DifficultyMedium, Text: "What game or pastime did you love most as a child?"},
		{Category: CategoryDaily, Difficulty: DifficultyMedium, Text: "If you had a whole day of free time, what would you do?"},
		{Category: CategoryDaily, Difficulty: DifficultyMedium, Text: "If you picked up a new hobby, what would it be?"},

		{Category: CategoryRelationship, Difficulty: DifficultyEasy, Text: "What do you find most attractive about your partner?"},
		{Category: CategoryRelationship, Difficulty: DifficultyEasy, Text: "When are you happiest when we are together?"},
		{Category: CategoryRelationship, Difficulty: DifficultyEasy, Text: "What are you grateful to your partner for?"},
		{Category: CategoryRelationship, Difficulty: DifficultyMedium, Text: "What matters most to you in a relationship?"},
		{Category: CategoryRelationship, Difficulty: DifficultyMedium, Text: "How do you think we should resolve a conflict?"},
		{Category: CategoryRelationship, Difficulty: DifficultyMedium, Text: "Is there a memory you want to create together?"},
		{Category: CategoryRelationship, Difficulty: DifficultyHard, Text: "What would help us be more honest with each other?"},
		{Category: CategoryRelationship, Difficulty: DifficultyHard, Text: "Which part of our relationship would you like to grow?"},

		{Category: CategoryDreams, Difficulty: DifficultyEasy, Text: "Is there a goal you really want to reach this year?"},
		{Category: CategoryDreams, Difficulty: DifficultyEasy, Text: "What job did you dream of as a child?"},
		{Category: CategoryDreams, Difficulty: DifficultyMedium, Text: "What do you think you will be like in five years?"},
		{Category: CategoryDreams, Difficulty: DifficultyMedium, Text: "Where would you most like to travel and why?"},
		{Category: CategoryDreams, Difficulty: DifficultyMedium, Text: "If you took on a new challenge, what would it be?"},
		{Category: CategoryDreams, Difficulty: DifficultyHard, Text: "Which value do you hold most important in life?"},
		{Category: CategoryDreams, Difficulty: DifficultyHard, Text: "How do you picture us together ten years from now?"},

		{Category: CategoryMemories, Difficulty: DifficultyEasy, Text: "Which birthday do you remember most?"},
		{Category: CategoryMemories, Difficulty: DifficultyEasy, Text: "What was your favorite place as a child?"},
		{Category: CategoryMemories, Difficulty: DifficultyMedium, Text: "What is the most memorable gift you have received?"},
		{Category: CategoryMemories, Difficulty: DifficultyMedium, Text: "Be honest: what was your first impression of me?"},
		{Category: CategoryMemories, Difficulty: DifficultyMedium, Text: "Which moment from our dates do you remember most?"},
		{Category: CategoryMemories, Difficulty: DifficultyHard, Text: "How did you get through the hardest period of your life?"},
		{Category: CategoryMemories, Difficulty: DifficultyHard, Text: "Is there something you regret most so far?"},

		{Category: CategoryFun, Difficulty: DifficultyEasy, Text: "If you were born an animal, which one would you be?"},
		{Category: CategoryFun, Difficulty: DifficultyEasy, Text: "If you could have one superpower, which would you choose?"},
		{Category: CategoryFun, Difficulty: DifficultyEasy, Text: "If you could take only one thing to a desert island, what would it be?"},
		{Category: CategoryFun, Difficulty: DifficultyMedium, Text: "If time travel were possible, when would you go?"},
		{Category: CategoryFun, Difficulty: DifficultyMedium, Text: "If you could be someone else for a day, who would it be?"},
		{Category: CategoryFun, Difficulty: DifficultyMedium, Text: "If you won the lottery, what would you do first?"},
		{Category: CategoryFun, Difficulty: DifficultyHard, Text: "If you could solve one problem in the world, which would you pick?"},

		{Category: CategoryDeep, Difficulty: DifficultyMedium, Text: "What do you think happiness is?"},
		{Category: CategoryDeep, Difficulty: DifficultyMedium, Text: "What are you most grateful to your family for?"},
		{Category: CategoryDeep, Difficulty: DifficultyHard, Text: "What do you think is most important in life?"},
		{Category: CategoryDeep, Difficulty: DifficultyHard, Text: "Is there something you must do before you die?"},
		{Category: CategoryDeep, Difficulty: DifficultyHard, Text: "If tomorrow were your last day, what would you do?"},
		{Category: CategoryDeep, Difficulty: DifficultyHard, Text: "What do you need most right now?"},
	}
}
