package badge

import "fitQuestAPI/internal/types/badge"

// Catalogue is the badge reference data seeded at startup. Order is the
// evaluation order.
func Catalogue() []*badge.Badge {
	defs := []*badge.Badge{
		{Name: "First Steps", Description: "Logged your first activity", Icon: "👣", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 1}, PointsReward: 10},
		{Name: "Week Warrior", Description: "7 consecutive days of activity", Icon: "🔥", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 7}, PointsReward: 50},
		{Name: "Consistency King", Description: "14 consecutive days of activity", Icon: "👑", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 14}, PointsReward: 100},
		{Name: "Month Master", Description: "30 consecutive days of activity", Icon: "🏆", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 30}, PointsReward: 200},
		{Name: "Step Champion", Description: "10,000 steps in one day", Icon: "🚶", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementSteps, Value: 10000}, PointsReward: 25},
		{Name: "Distance Explorer", Description: "10 km in one day", Icon: "🌍", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementDistance, Value: 10}, PointsReward: 30},
		{Name: "Calorie Crusher", Description: "500 calories burned in one day", Icon: "💪", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementCalories, Value: 500}, PointsReward: 25},
		{Name: "Point Collector", Description: "Reach 1000 total points", Icon: "⭐", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementPoints, Value: 1000}, PointsReward: 0},
		{Name: "Level Up", Description: "Reach level 5", Icon: "🎯", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementPoints, Value: 3001}, PointsReward: 0},
		{Name: "Century Streak", Description: "100 consecutive days of activity", Icon: "💯", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 100}, PointsReward: 500},
		{Name: "Step Master", Description: "15,000 steps in one day", Icon: "🏃", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementSteps, Value: 15000}, PointsReward: 50},
		{Name: "Marathon Walker", Description: "20 km in one day", Icon: "🚴", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementDistance, Value: 20}, PointsReward: 75},
		{Name: "Calorie Master", Description: "1000 calories burned in one day", Icon: "🔥", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementCalories, Value: 1000}, PointsReward: 50},
		{Name: "Early Bird", Description: "Log activity before 8 AM", Icon: "🌅", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 5}, PointsReward: 20},
		{Name: "Night Owl", Description: "Log activity after 10 PM", Icon: "🌙", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 5}, PointsReward: 20},
		{Name: "Weekend Warrior", Description: "Complete activities on 5 weekends", Icon: "🎉", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 10}, PointsReward: 30},
		{Name: "Point Millionaire", Description: "Reach 10,000 total points", Icon: "💎", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementPoints, Value: 10000}, PointsReward: 0},
		{Name: "Elite Athlete", Description: "Reach level 6 (Elite)", Icon: "👑", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementPoints, Value: 5001}, PointsReward: 0},
		{Name: "Activity Addict", Description: "Log 50 activities", Icon: "📊", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 50}, PointsReward: 100},
		{Name: "Century Club", Description: "Log 100 activities", Icon: "🏅", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 100}, PointsReward: 200},
		{Name: "Half Marathon", Description: "Complete 21 km total distance", Icon: "🏁", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementPoints, Value: 500}, PointsReward: 50},
		{Name: "Speed Demon", Description: "Complete 5 km in under 30 minutes", Icon: "⚡", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementDistance, Value: 5}, PointsReward: 40},
		{Name: "Dedication Master", Description: "60 consecutive days of activity", Icon: "💪", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 60}, PointsReward: 300},
		{Name: "Ultra Runner", Description: "25,000 steps in one day", Icon: "🏃‍♂️", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementSteps, Value: 25000}, PointsReward: 100},
		{Name: "Marathon Distance", Description: "42 km total distance in activities", Icon: "🏃", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementDistance, Value: 42}, PointsReward: 150},
		{Name: "Calorie Beast", Description: "1500 calories burned in one day", Icon: "🔥", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementCalories, Value: 1500}, PointsReward: 100},
		{Name: "Exercise Enthusiast", Description: "120 minutes of exercise in one day", Icon: "⏱️", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementExerciseTime, Value: 120}, PointsReward: 60},
		{Name: "Daily Dedication", Description: "Complete 7 days with all activity types", Icon: "📅", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 7}, PointsReward: 75},
		{Name: "Triple Digit Streak", Description: "100 consecutive days of activity", Icon: "💯", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 100}, PointsReward: 500},
		{Name: "Point Master", Description: "Reach 5,000 total points", Icon: "⭐", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementPoints, Value: 5000}, PointsReward: 0},
		{Name: "Step Legend", Description: "20,000 steps in one day", Icon: "👑", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementSteps, Value: 20000}, PointsReward: 75},
		{Name: "Distance King", Description: "30 km in one day", Icon: "🌐", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementDistance, Value: 30}, PointsReward: 100},
		{Name: "Power Hour", Description: "60 minutes of exercise in one session", Icon: "⚡", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementExerciseTime, Value: 60}, PointsReward: 40},
		{Name: "Weekend Champion", Description: "Log activities on 10 weekends", Icon: "🎊", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 20}, PointsReward: 50},
		{Name: "Monthly Master", Description: "Complete 30 days of activities", Icon: "📆", Category: badge.CategoryMilestone, Requirement: badge.Requirement{Type: badge.RequirementTotalActivities, Value: 30}, PointsReward: 150},
		{Name: "Calorie Warrior", Description: "750 calories burned in one day", Icon: "🛡️", Category: badge.CategoryActivity, Requirement: badge.Requirement{Type: badge.RequirementCalories, Value: 750}, PointsReward: 40},
		{Name: "Consistency Pro", Description: "21 consecutive days of activity", Icon: "🎯", Category: badge.CategoryStreak, Requirement: badge.Requirement{Type: badge.RequirementStreak, Value: 21}, PointsReward: 150},
	}
	for i, d := range defs {
		d.SortOrder = i + 1
	}
	return defs
}
