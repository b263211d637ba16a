package prompts

import _ "embed"

//go:embed assistant_system.txt
var assistantSystem string

//go:embed topic_classifier.txt
var topicClassifier string

func AssistantSystem() string { return assistantSystem }
func TopicClassifier() string { return topicClassifier }
