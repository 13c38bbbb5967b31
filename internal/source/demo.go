package source

import (
	"strings"

	"github.com/wgomg/kukulkan/internal/transcript"
)

// Demo content served when every acquisition path fails, so the rest
// of the pipeline stays usable without network access.

var demoSegments = []transcript.Segment{
	{Text: "Welcome to this introduction to machine learning.", Start: 0.0, Duration: 3.5},
	{Text: "Machine learning is a subset of artificial intelligence that enables computers to learn and make decisions from data.", Start: 3.5, Duration: 6.0},
	{Text: "There are three main types of machine learning: supervised learning, unsupervised learning, and reinforcement learning.", Start: 9.5, Duration: 7.0},
	{Text: "Supervised learning uses labeled data to train models. For example, we might train a model to recognize cats in photos by showing it thousands of labeled cat and non-cat images.", Start: 16.5, Duration: 8.5},
	{Text: "Unsupervised learning finds patterns in data without labels. Clustering is a common unsupervised technique that groups similar data points together.", Start: 25.0, Duration: 7.5},
	{Text: "Reinforcement learning trains agents to make decisions through trial and error, receiving rewards or penalties for their actions.", Start: 32.5, Duration: 6.5},
	{Text: "Popular machine learning algorithms include linear regression, decision trees, neural networks, and support vector machines.", Start: 39.0, Duration: 6.0},
	{Text: "Neural networks are inspired by the human brain and consist of interconnected nodes that process information.", Start: 45.0, Duration: 5.5},
	{Text: "Deep learning uses neural networks with many layers to solve complex problems like image recognition and natural language processing.", Start: 50.5, Duration: 7.0},
	{Text: "Machine learning applications include recommendation systems, fraud detection, medical diagnosis, and autonomous vehicles.", Start: 57.5, Duration: 6.5},
	{Text: "To get started with machine learning, you should learn programming languages like Python or R, and understand statistics and linear algebra.", Start: 64.0, Duration: 7.0},
	{Text: "Popular machine learning libraries include scikit-learn, TensorFlow, and PyTorch, which provide tools for building and training models.", Start: 71.0, Duration: 6.5},
	{Text: "Data preprocessing is crucial in machine learning. This includes cleaning data, handling missing values, and feature engineering.", Start: 77.5, Duration: 6.0},
	{Text: "Model evaluation helps us understand how well our machine learning model performs on new, unseen data.", Start: 83.5, Duration: 5.5},
	{Text: "Common evaluation metrics include accuracy, precision, recall, and F1-score for classification problems.", Start: 89.0, Duration: 5.0},
	{Text: "Overfitting occurs when a model learns the training data too well and fails to generalize to new data.", Start: 94.0, Duration: 5.5},
	{Text: "Cross-validation is a technique used to assess model performance and reduce overfitting by testing on multiple data splits.", Start: 99.5, Duration: 6.0},
	{Text: "Feature selection helps improve model performance by identifying the most relevant input variables.", Start: 105.5, Duration: 5.0},
	{Text: "Ensemble methods combine multiple models to create more robust and accurate predictions.", Start: 110.5, Duration: 4.5},
	{Text: "Thank you for watching this introduction to machine learning. Keep practicing and exploring this exciting field!", Start: 115.0, Duration: 5.0},
}

// DemoContent returns a copy of the built-in transcript and its info.
func DemoContent() ([]transcript.Segment, VideoInfo) {
	segments := make([]transcript.Segment, len(demoSegments))
	copy(segments, demoSegments)
	return segments, VideoInfo{
		VideoID:  "demo_ml_intro",
		Title:    "Introduction to Machine Learning - Demo Video",
		Channel:  "Kukulkan Demo Channel",
		Duration: "2:00",
		URL:      "https://www.youtube.com/watch?v=demo_ml_intro",
		Language: "en",
	}
}

// IsDemoURL reports whether the input explicitly asks for demo content.
func IsDemoURL(input string) bool {
	lowered := strings.ToLower(input)
	for _, keyword := range []string{"demo", "test", "sample", "example"} {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
