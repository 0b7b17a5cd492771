package outbox

const workoutLoggedSchema = `{
  "type": "object",
  "title": "WorkoutLogged",
  "properties": {
    "workout_id": {"type": "string"},
    "user_id": {"type": "string"},
    "quest_id": {"type": "string"},
    "exercise_type": {"type": "string"},
    "value": {"type": "integer"},
    "logged_at": {"type": "string", "format": "date-time"}
  },
  "required": ["workout_id", "user_id", "exercise_type", "value", "logged_at"],
  "additionalProperties": false
}`

const questCompletedSchema = `{
  "type": "object",
  "title": "QuestCompleted",
  "properties": {
    "quest_id": {"type": "string"},
    "user_id": {"type": "string"},
    "title": {"type": "string"},
    "exercise_type": {"type": "string"},
    "xp_reward": {"type": "integer"},
    "gold_reward": {"type": "integer"},
    "completed_at": {"type": "string", "format": "date-time"}
  },
  "required": ["quest_id", "user_id", "title", "exercise_type", "xp_reward", "gold_reward", "completed_at"],
  "additionalProperties": false
}`

const userLeveledUpSchema = `{
  "type": "object",
  "title": "UserLeveledUp",
  "properties": {
    "user_id": {"type": "string"},
    "old_level": {"type": "integer"},
    "new_level": {"type": "integer"},
    "avatar_tier": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "old_level", "new_level", "avatar_tier", "occurred_at"],
  "additionalProperties": false
}`

const achievementUnlockedSchema = `{
  "type": "object",
  "title": "AchievementUnlocked",
  "properties": {
    "achievement_id": {"type": "string"},
    "user_id": {"type": "string"},
    "name": {"type": "string"},
    "rarity": {"type": "string"},
    "xp_reward": {"type": "integer"},
    "gold_reward": {"type": "integer"},
    "unlocked_at": {"type": "string", "format": "date-time"}
  },
  "required": ["achievement_id", "user_id", "name", "rarity", "xp_reward", "gold_reward", "unlocked_at"],
  "additionalProperties": false
}`
