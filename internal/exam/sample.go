package exam

import "github.com/pavelanni/examgen/internal/model"

// SampleExam is the built-in exam shown when no generated exam is available.
func SampleExam() *model.Exam {
	return &model.Exam{
		Title: "Biología Celular - Examen",
		Questions: []model.Question{
			model.MultipleChoice{
				QuestionBase: model.QuestionBase{
					ID:          "1",
					Text:        "¿Cuál de los siguientes NO es un organelo presente en células eucariotas?",
					Explanation: "El nucleoide es una región del citoplasma que contiene el material genético en células procariotas, no en eucariotas.",
				},
				Options:       []string{"Mitocondria", "Ribosoma", "Nucleoide", "Aparato de Golgi"},
				CorrectAnswer: 2,
			},
			model.TrueFalse{
				QuestionBase: model.QuestionBase{
					ID:          "2",
					Text:        "Las mitocondrias son conocidas como 'la central energética' de la célula porque producen ATP.",
					Explanation: "Las mitocondrias son responsables de la producción de ATP a través del proceso de respiración celular.",
				},
				CorrectAnswer: true,
			},
			model.Open{
				QuestionBase: model.QuestionBase{
					ID:          "3",
					Text:        "Explica brevemente el proceso de la fotosíntesis y su importancia para los seres vivos.",
					Explanation: "La fotosíntesis es el proceso por el cual las plantas, algas y algunas bacterias convierten la energía de la luz solar en energía química. Utilizan clorofila para capturar la luz solar y convierten CO2 y agua en glucosa y oxígeno.",
				},
				Keywords: []string{"luz solar", "clorofila", "CO2", "agua", "glucosa", "oxígeno"},
			},
			model.Matching{
				QuestionBase: model.QuestionBase{
					ID:          "4",
					Text:        "Relaciona cada organelo con su función:",
					Explanation: "Cada organelo tiene funciones específicas en la célula.",
				},
				Pairs: []model.MatchPair{
					{Item: "Ribosoma", Match: "Síntesis de proteínas"},
					{Item: "Lisosoma", Match: "Digestión celular"},
					{Item: "Retículo endoplásmico", Match: "Transporte intracelular"},
					{Item: "Núcleo", Match: "Almacenamiento de ADN"},
				},
			},
		},
	}
}
