package catalog

import "github.com/wolfman30/healthconnect/internal/appointments"

const defaultContact = "+91 987654321"

var defaultSpecializations = []Specialization{
	{Slug: "gynecologist", Name: "Gynecologist", Description: "Women's health and reproductive care", DoctorCount: 12},
	{Slug: "child-specialist", Name: "Child Specialist", Description: "Pediatric care for children and infants", DoctorCount: 8},
	{Slug: "neurologist", Name: "Neurologist", Description: "Brain and nervous system disorders", DoctorCount: 6},
	{Slug: "psychiatrist", Name: "Psychiatrist", Description: "Mental health and psychological care", DoctorCount: 10},
	{Slug: "dentist", Name: "Dentist", Description: "Oral health and dental care", DoctorCount: 15},
	{Slug: "speech-therapist", Name: "Speech Therapist", Description: "Speech and language disorders", DoctorCount: 5},
	{Slug: "cardiologist", Name: "Cardiologist", Description: "Heart and cardiovascular health", DoctorCount: 9},
}

var defaultDoctors = []Doctor{
	{ID: 1, Name: "Dr.Yamini", Specialization: "Gynecologist", ExperienceYears: 8, Location: "Hyderabad", Contact: defaultContact, Availability: "Available Today", Gender: appointments.GenderFemale},
	{ID: 2, Name: "Dr. Rajesh", Specialization: "Neurologist", ExperienceYears: 12, Location: "Hyderabad", Contact: defaultContact, Availability: "Available Tomorrow", Gender: appointments.GenderMale},
	{ID: 3, Name: "Dr. Akshaya", Specialization: "Child Specialist", ExperienceYears: 6, Location: "Hyderabad", Contact: defaultContact, Availability: "Available Today", Gender: appointments.GenderFemale},
	{ID: 4, Name: "Dr. Balram", Specialization: "Cardiologist", ExperienceYears: 15, Location: "Hyderabad", Contact: defaultContact, Availability: "Available in 2 days", Gender: appointments.GenderMale},
}

var defaultCategories = []TreatmentCategory{
	{Slug: "cardiac-surgery", Name: "Cardiac Surgery", Description: "Heart surgeries and cardiovascular procedures"},
	{Slug: "neurosurgery", Name: "Neurosurgery", Description: "Brain and nervous system surgeries"},
	{Slug: "orthopedic-surgery", Name: "Orthopedic Surgery", Description: "Bone, joint, and muscle surgeries"},
	{Slug: "general-surgery", Name: "General Surgery", Description: "Common surgical procedures"},
	{Slug: "plastic-surgery", Name: "Plastic Surgery", Description: "Cosmetic and reconstructive surgeries"},
	{Slug: "dental-surgery", Name: "Dental Surgery", Description: "Oral and dental surgical procedures"},
}

var defaultTreatments = []Treatment{
	{
		ID: 1, Name: "Coronary Bypass Surgery", Category: "cardiac-surgery",
		Hospital: "Yashoda Hospital", Location: "Hyderabad", CostRupees: 10000,
		DoctorName: "Dr.Rajesh", DoctorGender: appointments.GenderMale, ExperienceYears: 15,
		Achievements: []string{"Board-certified Cardiac Surgeon", "Published 50+ research papers"},
	},
	{
		ID: 2, Name: "Heart Valve Replacement", Category: "cardiac-surgery",
		Hospital: "Care Hospital", Location: "Yusafguda", CostRupees: 14999,
		DoctorName: "Dr.Yamini", DoctorGender: appointments.GenderFemale, ExperienceYears: 12,
		Achievements: []string{"Fellowship in Cardiovascular Surgery", "Award for Excellence in Patient Care"},
	},
	{
		ID: 3, Name: "Angioplasty", Category: "cardiac-surgery",
		Hospital: "Sagam Hospital", Location: "Amberpet", CostRupees: 25000,
		DoctorName: "Dr. Balram", DoctorGender: appointments.GenderMale, ExperienceYears: 10,
		Achievements: []string{"Interventional Cardiology Specialist", "500+ successful procedures"},
	},
}
