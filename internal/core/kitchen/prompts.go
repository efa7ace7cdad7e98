package kitchen

import (
	"fmt"
	"strings"
)

func menuRecommendationPrompt(ingredients []string) string {
	return fmt.Sprintf(`Kamu adalah ahli gizi dan koki untuk program Makan Bergizi Gratis.
Bahan yang tersedia dan harus segera dimasak: %s.

Buat SATU menu sehat yang memakai sebanyak mungkin bahan tersebut.
Jawab HANYA dengan JSON tanpa teks lain, dengan format:
{
  "menu_name": "nama menu",
  "ingredients_needed": ["bahan 1", "bahan 2"],
  "cooking_steps": ["langkah 1", "langkah 2"],
  "nutrition": {"calories": "kkal per porsi", "protein": "gram", "carbs": "gram", "fats": "gram"},
  "reason": "alasan singkat kenapa menu ini cocok"
}`, strings.Join(ingredients, ", "))
}

func mealExpiryPrompt(menuName string) string {
	return fmt.Sprintf(`Kamu adalah ahli keamanan pangan.
Analisis masakan "%s" yang baru selesai dimasak untuk makan siang anak sekolah.

Jawab HANYA dengan JSON:
{
  "room_temp_hours": angka jam aman di suhu ruang,
  "fridge_hours": angka jam aman di kulkas,
  "risk_factor": "bahan paling berisiko basi",
  "storage_tips": "tips penyimpanan singkat",
  "nutrition": {"calories": "...", "protein": "...", "carbs": "...", "fats": "..."}
}`, menuName)
}

func chefSystemPrompt(stockList string) string {
	return fmt.Sprintf(`Kamu adalah "Chef Bekal", asisten dapur AI yang ramah, solutif, dan ahli gizi untuk program Makan Bergizi Gratis.

DATA STOK GUDANG USER SAAT INI:
%s

TUGAS KAMU:
1. Jawab pertanyaan user terkait masakan, resep, atau manajemen dapur.
2. Jika user minta resep, PRIORITASKAN bahan yang ada di stok mereka.
3. Jika bahan KURANG, sebutkan bahan apa yang kurang dan sarankan membelinya di menu "Cari Supplier".
4. Berikan langkah-langkah masak yang jelas dan ringkas.
5. Gaya bicara: ramah, profesional, dan menyemangati (Bahasa Indonesia).`, stockList)
}

const cookedMealInspectionPrompt = `Kamu adalah petugas quality control dapur sekolah.
Periksa foto masakan jadi ini: apakah masih layak disajikan, dan perkirakan gizinya per porsi.

Jawab HANYA dengan JSON:
{
  "menu_detected": "nama masakan",
  "is_safe": true,
  "freshness": "Segar | Perlu Dicek | Tidak Layak",
  "visual_notes": "pengamatan visual singkat",
  "nutrition": {"calories": "...", "protein": "...", "carbs": "...", "fats": "..."},
  "recommendation": "saran untuk petugas dapur"
}`
